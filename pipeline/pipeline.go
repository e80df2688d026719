// Package pipeline runs every configured source once, collects what
// succeeded and writes the combined batch to the CSV, JSON and SQLite sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/headline"
	"github.com/pevans/headlines/scraper"
	"github.com/pevans/headlines/store"
)

// ErrNothingScraped is returned when no source produced any headline. No
// sink is written in that case.
var ErrNothingScraped = errors.New("no headlines scraped")

// Extractor fetches and parses one source.
type Extractor interface {
	Scrape(ctx context.Context, src scraper.Source, scrapedAt string) ([]headline.Headline, error)
}

// Outcome is the result of scraping a single source.
type Outcome struct {
	Source string
	Count  int
	Err    error
}

// Failed reports whether the source could not be scraped.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Result describes one pipeline run.
type Result struct {
	RunID     uuid.UUID
	ScrapedAt string
	Outcomes  []Outcome
	Batch     []headline.Headline
	Written   int
}

// Failures returns the outcomes of sources that failed.
func (r *Result) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Options configures a Pipeline. Zero values fall back to the scraper's
// fetcher, the default logger and the wall clock.
type Options struct {
	Sources   []scraper.Source
	Paths     config.Paths
	Extractor Extractor
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline is the scrape-and-save sequence.
type Pipeline struct {
	sources   []scraper.Source
	paths     config.Paths
	extractor Extractor
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		sources:   opts.Sources,
		paths:     opts.Paths,
		extractor: opts.Extractor,
		logger:    opts.Logger,
		now:       opts.Now,
	}

	if p.extractor == nil {
		p.extractor = scraper.NewFetcher()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}

	return p
}

// NewFromConfig creates a pipeline for the configured sources and sinks.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return New(Options{
		Sources: cfg.Sources,
		Paths:   cfg.Paths(),
		Logger:  logger,
	})
}

// Run scrapes every source in order and saves the combined batch. A failing
// source is logged and skipped. If nothing was scraped, Run returns
// ErrNothingScraped without writing. Sink errors are returned as is; sinks
// written before the failure are not rolled back.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.New(),
		ScrapedAt: headline.Timestamp(p.now()),
	}
	logger := p.logger.With("run_id", result.RunID.String())

	for _, src := range p.sources {
		batch, err := p.scrapeSource(ctx, src, result.ScrapedAt)
		if err != nil {
			logger.Error("source failed", "source", src.Name, "url", src.URL, "err", err)
			result.Outcomes = append(result.Outcomes, Outcome{Source: src.Name, Err: err})
			continue
		}

		logger.Info("source scraped", "source", src.Name, "count", len(batch))
		result.Outcomes = append(result.Outcomes, Outcome{Source: src.Name, Count: len(batch)})
		result.Batch = append(result.Batch, batch...)
	}

	if len(result.Batch) == 0 {
		logger.Warn("nothing scraped", "sources", len(p.sources), "failed", len(result.Failures()))
		return result, ErrNothingScraped
	}

	written, err := p.save(ctx, result.Batch)
	if err != nil {
		return result, err
	}
	result.Written = written

	logger.Info("batch saved",
		"count", written,
		"csv", p.paths.CSV,
		"json", p.paths.JSON,
		"db", p.paths.DB,
	)

	return result, nil
}

// scrapeSource calls the extractor, turning a panic into an error so one
// source can never abort the run.
func (p *Pipeline) scrapeSource(ctx context.Context, src scraper.Source, scrapedAt string) (batch []headline.Headline, err error) {
	defer func() {
		if r := recover(); r != nil {
			batch = nil
			err = fmt.Errorf("panic while scraping %s: %v", src.Name, r)
		}
	}()

	return p.extractor.Scrape(ctx, src, scrapedAt)
}

// save writes batch to the CSV file, the JSON file and the database, in that
// order.
func (p *Pipeline) save(ctx context.Context, batch []headline.Headline) (int, error) {
	if err := archive.AppendCSV(p.paths.CSV, batch); err != nil {
		return 0, fmt.Errorf("failed to save csv: %w", err)
	}

	if err := archive.WriteJSON(p.paths.JSON, batch); err != nil {
		return 0, fmt.Errorf("failed to save json: %w", err)
	}

	s, err := store.Open(p.paths.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to save to database: %w", err)
	}
	defer s.Close()

	n, err := s.AppendBatch(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to save to database: %w", err)
	}

	return n, nil
}
