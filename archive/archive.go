// Package archive writes headline batches to flat files and encodes the
// dashboard's export downloads.
package archive

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pevans/headlines/headline"
)

// batchHeader is the header of the cumulative CSV file. Batch records have no
// id until storage assigns one.
var batchHeader = []string{"headline", "source", "scraped_at"}

// exportHeader is the header of CSV exports read back from storage.
var exportHeader = []string{"id", "headline", "source", "scraped_at"}

// ErrMissingColumn is returned when a CSV export lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// record is the on-disk shape of a batch entry.
type record struct {
	Headline  string `json:"headline"`
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"`
}

func toRecords(batch []headline.Headline) []record {
	records := make([]record, 0, len(batch))
	for _, h := range batch {
		records = append(records, record{
			Headline:  h.Headline,
			Source:    h.Source,
			ScrapedAt: h.ScrapedAt,
		})
	}
	return records
}

// AppendCSV appends batch to the CSV file at path. The header row is written
// only when the file did not exist before the call.
func AppendCSV(path string, batch []headline.Headline) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	writeHeader := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		writeHeader = true
	} else if err != nil {
		return fmt.Errorf("failed to stat csv file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(batchHeader); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	for _, h := range batch {
		if err := w.Write([]string{h.Headline, h.Source, h.ScrapedAt}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file: %w", err)
	}

	return f.Close()
}

// WriteJSON replaces the file at path with batch as an indented JSON array.
// Only this batch is kept; earlier content is discarded.
func WriteJSON(path string, batch []headline.Headline) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(toRecords(batch), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	// 0600: owner-only read/write
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write json file: %w", err)
	}

	return nil
}

// EncodeCSV writes stored rows, id included, as CSV with a header row.
func EncodeCSV(w io.Writer, rows []headline.Headline) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, h := range rows {
		err := cw.Write([]string{
			strconv.FormatInt(h.ID, 10),
			h.Headline,
			h.Source,
			h.ScrapedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// EncodeJSON writes stored rows as an indented JSON array of objects.
func EncodeJSON(w io.Writer, rows []headline.Headline) error {
	if rows == nil {
		rows = []headline.Headline{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// DecodeCSV parses CSV written by EncodeCSV or AppendCSV. Columns are matched
// by header name; id is optional.
func DecodeCSV(r io.Reader) ([]headline.Headline, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []headline.Headline{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range batchHeader {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	idCol, hasID := cols["id"]

	rows := []headline.Headline{}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		h := headline.Headline{
			Headline:  fields[cols["headline"]],
			Source:    fields[cols["source"]],
			ScrapedAt: fields[cols["scraped_at"]],
		}
		if hasID && fields[idCol] != "" {
			h.ID, err = strconv.ParseInt(fields[idCol], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse id %q: %w", fields[idCol], err)
			}
		}
		rows = append(rows, h)
	}

	return rows, nil
}

// DecodeJSON parses a JSON array written by EncodeJSON or WriteJSON.
func DecodeJSON(r io.Reader) ([]headline.Headline, error) {
	rows := []headline.Headline{}
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return rows, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
