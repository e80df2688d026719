package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/headline"
	"github.com/pevans/headlines/pipeline"
)

// maxHeadlineWidth is the widest headline shown in the terminal table.
const maxHeadlineWidth = 70

var listPrinters = map[string]func(io.Writer, []headline.Headline) error{
	"table": printListTable,
	"json":  archive.EncodeJSON,
	"csv":   archive.EncodeCSV,
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// printListTable prints rows in human-readable table format
func printListTable(w io.Writer, rows []headline.Headline) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No headlines to display.")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Headline", "Source", "Scraped At"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.ID, truncate(row.Headline, maxHeadlineWidth), row.Source, row.ScrapedAt})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d headlines", len(rows)), "", ""})
	t.Render()

	return nil
}

// printScrapeSummary prints the per-source counts of a run and the total
// saved
func printScrapeSummary(w io.Writer, result *pipeline.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Source", "Headlines", "Status"})
	for _, o := range result.Outcomes {
		status := "ok"
		if o.Failed() {
			status = o.Err.Error()
		}
		t.AppendRow(table.Row{o.Source, o.Count, status})
	}
	t.Render()

	fmt.Fprintf(w, "%d headlines saved to CSV, JSON, and DB\n", result.Written)
}

// truncate shortens s to at most n terminal columns
func truncate(s string, n int) string {
	return runewidth.Truncate(s, n, "...")
}
