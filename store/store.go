package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/headlines/headline"
)

// schema is the fixed headlines table. It is never migrated.
const schema = `
	CREATE TABLE IF NOT EXISTS headlines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		headline TEXT NOT NULL,
		source TEXT,
		scraped_at TEXT
	);
	`

// HeadlineStore manages the headlines table using SQLite.
type HeadlineStore struct {
	db *sql.DB
}

// Init makes sure the directory holding dbPath exists and that the
// headlines table is present. It is safe to call before every write.
func Init(dbPath string) error {
	if dir := filepath.Dir(dbPath); dir != "" {
		// 0700: owner-only access
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Open initializes storage at dbPath and returns a store for it. Callers own
// the returned store and must Close it.
func Open(dbPath string) (*HeadlineStore, error) {
	if err := Init(dbPath); err != nil {
		return nil, err
	}
	return open(dbPath)
}

func open(dbPath string) (*HeadlineStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &HeadlineStore{db: db}, nil
}

// Close closes the database connection.
func (s *HeadlineStore) Close() error {
	return s.db.Close()
}

// AppendBatch inserts every record of batch as a new row and returns the
// number of rows written. IDs are assigned by SQLite; any ID already set on a
// record is ignored.
func (s *HeadlineStore) AppendBatch(ctx context.Context, batch []headline.Headline) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO headlines (headline, source, scraped_at) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range batch {
		if _, err := stmt.ExecContext(ctx, h.Headline, h.Source, h.ScrapedAt); err != nil {
			return 0, fmt.Errorf("failed to insert headline: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit headlines: %w", err)
	}

	return len(batch), nil
}

// ListHeadlines returns every stored headline, newest batch first.
func (s *HeadlineStore) ListHeadlines(ctx context.Context) ([]headline.Headline, error) {
	query := `
		SELECT id, headline, source, scraped_at
		FROM headlines
		ORDER BY scraped_at DESC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query headlines: %w", err)
	}
	defer rows.Close()

	headlines := []headline.Headline{}
	for rows.Next() {
		var h headline.Headline
		var source, scrapedAt sql.NullString

		if err := rows.Scan(&h.ID, &h.Headline, &source, &scrapedAt); err != nil {
			return nil, fmt.Errorf("failed to scan headline: %w", err)
		}

		h.Source = source.String
		h.ScrapedAt = scrapedAt.String
		headlines = append(headlines, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read headlines: %w", err)
	}

	return headlines, nil
}

// Count returns the number of stored headlines.
func (s *HeadlineStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM headlines").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count headlines: %w", err)
	}
	return n, nil
}

// Load opens the store at dbPath, reads every headline and closes it again.
// It does not create anything: reading a store that was never initialized is
// an error.
func Load(ctx context.Context, dbPath string) ([]headline.Headline, error) {
	s, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.ListHeadlines(ctx)
}
