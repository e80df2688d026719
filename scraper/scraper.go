package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pevans/headlines/headline"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher performs the single GET for a source and extracts its headlines.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a fetcher. Requests are never retried.
func NewFetcher() *Fetcher {
	client := resty.New()
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetRetryCount(0)
	client.SetTimeout(30 * time.Second)

	return &Fetcher{client: client}
}

// FetchHTML fetches url and parses the body as HTML.
func (f *Fetcher) FetchHTML(ctx context.Context, url string) (*goquery.Document, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("HTTP error: %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// Scrape fetches src and returns its headlines, each tagged with src.Name and
// scrapedAt. It is all-or-nothing: on error no records are returned.
func (f *Fetcher) Scrape(ctx context.Context, src Source, scrapedAt string) ([]headline.Headline, error) {
	if err := src.Rule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule for %s: %w", src.Name, err)
	}

	doc, err := f.FetchHTML(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	return headline.NewBatch(Extract(doc, src.Rule), src.Name, scrapedAt), nil
}

// Extract returns the trimmed text of every node matching rule.Selector that
// passes the rule's predicate, in document order.
func Extract(doc *goquery.Document, rule Rule) []string {
	titles := []string{}
	doc.Find(rule.Selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if rule.Keep(text) {
			titles = append(titles, text)
		}
	})
	return titles
}
