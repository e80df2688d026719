package dashboard

import (
	"errors"
	"strings"
	"time"

	"github.com/pevans/headlines/headline"
)

// dateLayout is the layout of the date filter, the same one an HTML date
// input submits.
const dateLayout = "2006-01-02"

// ErrInvalidDate is returned for a date filter that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// Filter narrows the loaded table. Empty fields are not applied.
type Filter struct {
	Search string
	Date   string
}

// ParseDate validates a YYYY-MM-DD date and returns it in canonical form.
// The empty string means no date filter.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return d.Format(dateLayout), nil
}

// Apply returns the rows that pass the search filter and then the date
// filter, keeping their order.
func (f Filter) Apply(rows []headline.Headline) []headline.Headline {
	filtered := rows
	if f.Search != "" {
		filtered = filterBySearch(filtered, f.Search)
	}
	if f.Date != "" {
		filtered = filterByDate(filtered, f.Date)
	}
	if filtered == nil {
		filtered = []headline.Headline{}
	}
	return filtered
}

// filterBySearch keeps rows whose headline contains search, ignoring case.
func filterBySearch(rows []headline.Headline, search string) []headline.Headline {
	needle := strings.ToLower(search)
	filtered := []headline.Headline{}
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Headline), needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// filterByDate keeps rows whose scraped_at text starts with date. This is a
// plain string prefix match and relies on the stored timestamp layout.
func filterByDate(rows []headline.Headline, date string) []headline.Headline {
	filtered := []headline.Headline{}
	for _, row := range rows {
		if strings.HasPrefix(row.ScrapedAt, date) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
