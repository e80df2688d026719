package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/headline"
	"github.com/pevans/headlines/logging"
	"github.com/pevans/headlines/scraper"
	"github.com/pevans/headlines/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 2, 9, 0, 0, 0, time.Local)

// fakeExtractor returns canned titles or errors per source name.
type fakeExtractor struct {
	titles map[string][]string
	errs   map[string]error
	panics map[string]bool
	calls  []string
}

func (f *fakeExtractor) Scrape(_ context.Context, src scraper.Source, scrapedAt string) ([]headline.Headline, error) {
	f.calls = append(f.calls, src.Name)
	if f.panics[src.Name] {
		panic("selector exploded")
	}
	if err := f.errs[src.Name]; err != nil {
		return nil, err
	}
	return headline.NewBatch(f.titles[src.Name], src.Name, scrapedAt), nil
}

// Test helper: sink paths inside a temp dir
func createTestPaths(t *testing.T) config.Paths {
	dir := filepath.Join(t.TempDir(), "data")
	return config.Paths{
		DB:   filepath.Join(dir, "news.db"),
		CSV:  filepath.Join(dir, "headlines.csv"),
		JSON: filepath.Join(dir, "headlines.json"),
	}
}

// Test helper: three sources that never hit the network
func createTestSources() []scraper.Source {
	rule := scraper.Rule{Selector: "h2", Predicate: scraper.PredicateNonEmpty}
	return []scraper.Source{
		{Name: "BBC", URL: "http://bbc.invalid", Rule: rule},
		{Name: "CNN", URL: "http://cnn.invalid", Rule: rule},
		{Name: "Hindustan Times", URL: "http://ht.invalid", Rule: rule},
	}
}

// Test helper: a pipeline over the fake extractor
func createTestPipeline(t *testing.T, ex Extractor) (*Pipeline, config.Paths) {
	paths := createTestPaths(t)
	p := New(Options{
		Sources:   createTestSources(),
		Paths:     paths,
		Extractor: ex,
		Logger:    logging.Discard(),
		Now:       func() time.Time { return fixedNow },
	})
	return p, paths
}

// Test helper: read the stored rows
func loadStored(t *testing.T, dbPath string) []headline.Headline {
	rows, err := store.Load(context.Background(), dbPath)
	require.NoError(t, err)
	return rows
}

// TestRun_AllSucceed verifies the batch order, shared timestamp and all three
// sinks
func TestRun_AllSucceed(t *testing.T) {
	ex := &fakeExtractor{titles: map[string][]string{
		"BBC":             {"b1", "b2"},
		"CNN":             {"c1"},
		"Hindustan Times": {"h1", "h2", "h3"},
	}}
	p, paths := createTestPipeline(t, ex)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"BBC", "CNN", "Hindustan Times"}, ex.calls)
	assert.Equal(t, 6, result.Written)
	assert.Equal(t, "2024-01-02 09:00:00", result.ScrapedAt)
	assert.Empty(t, result.Failures())

	var titles []string
	for _, h := range result.Batch {
		titles = append(titles, h.Headline)
		assert.Equal(t, result.ScrapedAt, h.ScrapedAt, "one timestamp per batch")
	}
	assert.Equal(t, []string{"b1", "b2", "c1", "h1", "h2", "h3"}, titles)

	csvFile, err := os.Open(paths.CSV)
	require.NoError(t, err)
	defer csvFile.Close()
	csvRows, err := archive.DecodeCSV(csvFile)
	require.NoError(t, err)
	assert.Len(t, csvRows, 6)

	jsonFile, err := os.Open(paths.JSON)
	require.NoError(t, err)
	defer jsonFile.Close()
	jsonRows, err := archive.DecodeJSON(jsonFile)
	require.NoError(t, err)
	assert.Equal(t, result.Batch, jsonRows)

	stored := loadStored(t, paths.DB)
	assert.Len(t, stored, 6)
}

// TestRun_OneSourceFails verifies a failing source is skipped and the rest
// are saved
func TestRun_OneSourceFails(t *testing.T) {
	ex := &fakeExtractor{
		titles: map[string][]string{
			"BBC":             {"b1", "b2"},
			"Hindustan Times": {"h1"},
		},
		errs: map[string]error{"CNN": errors.New("connection refused")},
	}
	p, paths := createTestPipeline(t, ex)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Written, "total equals the sum of succeeding sources")
	require.Len(t, result.Outcomes, 3)
	assert.False(t, result.Outcomes[0].Failed())
	assert.True(t, result.Outcomes[1].Failed())
	assert.Zero(t, result.Outcomes[1].Count)
	assert.EqualError(t, result.Outcomes[1].Err, "connection refused")
	assert.Equal(t, 1, result.Outcomes[2].Count)

	for _, h := range result.Batch {
		assert.NotEqual(t, "CNN", h.Source)
	}
	assert.Len(t, loadStored(t, paths.DB), 3)
}

// TestRun_PanicIsIsolated verifies a panicking extractor only loses its own
// source
func TestRun_PanicIsIsolated(t *testing.T) {
	ex := &fakeExtractor{
		titles: map[string][]string{"CNN": {"c1"}, "Hindustan Times": {"h1"}},
		panics: map[string]bool{"BBC": true},
	}
	p, _ := createTestPipeline(t, ex)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	require.Len(t, result.Failures(), 1)
	assert.Equal(t, "BBC", result.Failures()[0].Source)
	assert.Contains(t, result.Failures()[0].Err.Error(), "panic while scraping BBC")
}

// TestRun_AllFail verifies nothing is written when every source fails
func TestRun_AllFail(t *testing.T) {
	boom := errors.New("boom")
	ex := &fakeExtractor{errs: map[string]error{"BBC": boom, "CNN": boom, "Hindustan Times": boom}}
	p, paths := createTestPipeline(t, ex)

	result, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrNothingScraped)
	require.NotNil(t, result)
	assert.Zero(t, result.Written)
	assert.Len(t, result.Failures(), 3)

	for _, path := range []string{paths.CSV, paths.JSON, paths.DB} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "%s should not be written", path)
	}
}

// TestRun_ZeroHeadlines verifies sources that succeed with nothing count as
// nothing scraped
func TestRun_ZeroHeadlines(t *testing.T) {
	p, paths := createTestPipeline(t, &fakeExtractor{})

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrNothingScraped)

	_, statErr := os.Stat(paths.CSV)
	assert.True(t, os.IsNotExist(statErr))
}

// TestRun_RepeatedRuns verifies CSV and DB accumulate while JSON holds only
// the latest batch
func TestRun_RepeatedRuns(t *testing.T) {
	ex := &fakeExtractor{titles: map[string][]string{"BBC": {"same"}}}
	paths := createTestPaths(t)

	clock := fixedNow
	p := New(Options{
		Sources:   createTestSources(),
		Paths:     paths,
		Extractor: ex,
		Logger:    logging.Discard(),
		Now:       func() time.Time { return clock },
	})

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	csvFile, err := os.Open(paths.CSV)
	require.NoError(t, err)
	defer csvFile.Close()
	csvRows, err := archive.DecodeCSV(csvFile)
	require.NoError(t, err)
	assert.Len(t, csvRows, 2, "csv appends each run")

	jsonFile, err := os.Open(paths.JSON)
	require.NoError(t, err)
	defer jsonFile.Close()
	jsonRows, err := archive.DecodeJSON(jsonFile)
	require.NoError(t, err)
	require.Len(t, jsonRows, 1, "json holds the latest batch only")
	assert.Equal(t, second.ScrapedAt, jsonRows[0].ScrapedAt)

	stored := loadStored(t, paths.DB)
	require.Len(t, stored, 2, "duplicates are kept")
	assert.Equal(t, "2024-01-02 10:00:00", stored[0].ScrapedAt, "newest first")
}

// TestRun_SinkFailureIsFatal verifies a filesystem error stops the run before
// later sinks
func TestRun_SinkFailureIsFatal(t *testing.T) {
	ex := &fakeExtractor{titles: map[string][]string{"BBC": {"b1"}}}
	paths := createTestPaths(t)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	paths.JSON = filepath.Join(blocker, "headlines.json")

	p := New(Options{
		Sources:   createTestSources(),
		Paths:     paths,
		Extractor: ex,
		Logger:    logging.Discard(),
	})

	result, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save json")
	assert.Zero(t, result.Written)

	_, statErr := os.Stat(paths.CSV)
	assert.NoError(t, statErr, "csv was written before the failure")
	_, statErr = os.Stat(paths.DB)
	assert.True(t, os.IsNotExist(statErr), "database is written last")
}

// TestRun_WithFetcher runs the real fetcher against local pages, one of which
// is down
func TestRun_WithFetcher(t *testing.T) {
	bbc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h2>Short one</h2><h2>Storm closes schools across the region</h2>`)
	}))
	defer bbc.Close()
	cnn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer cnn.Close()
	ht := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h3>Rupee steadies</h3><h3> </h3>`)
	}))
	defer ht.Close()

	sources := scraper.DefaultSources()
	sources[0].URL = bbc.URL
	sources[1].URL = cnn.URL
	sources[2].URL = ht.URL

	paths := createTestPaths(t)
	p := New(Options{
		Sources: sources,
		Paths:   paths,
		Logger:  logging.Discard(),
		Now:     func() time.Time { return fixedNow },
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	require.Len(t, result.Failures(), 1)
	assert.Equal(t, "CNN", result.Failures()[0].Source)

	stored := loadStored(t, paths.DB)
	require.Len(t, stored, 2)
	assert.Equal(t, "Storm closes schools across the region", stored[0].Headline)
	assert.Equal(t, "BBC", stored[0].Source)
	assert.Equal(t, "Rupee steadies", stored[1].Headline)
	assert.Equal(t, "Hindustan Times", stored[1].Source)
}
