package scraper

import (
	"errors"
	"fmt"
	"strings"
)

// Predicate names accepted in a Rule.
const (
	PredicateNonEmpty = "nonempty"
	PredicateMinWords = "min_words"
)

// Rule validation errors.
var (
	ErrEmptySelector    = errors.New("selector is required")
	ErrUnknownPredicate = errors.New("predicate must be nonempty or min_words")
	ErrInvalidMinWords  = errors.New("min_words must be non-negative")
)

// Rule defines how headlines are picked out of a page: every node matching
// Selector whose trimmed text passes Predicate.
type Rule struct {
	Selector  string `json:"selector" yaml:"selector"`
	Predicate string `json:"predicate" yaml:"predicate"` // "nonempty" or "min_words"
	MinWords  int    `json:"min_words,omitempty" yaml:"min_words,omitempty"`
}

// Source is one fixed news site and its extraction rule.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Rule Rule   `json:"rule" yaml:"rule"`
}

// DefaultSources returns the built-in sources in invocation order.
func DefaultSources() []Source {
	return []Source{
		{
			Name: "BBC",
			URL:  "https://www.bbc.com/news",
			Rule: Rule{Selector: "h2", Predicate: PredicateMinWords, MinWords: 3},
		},
		{
			Name: "CNN",
			URL:  "https://edition.cnn.com/world",
			Rule: Rule{Selector: "span.container__headline-text", Predicate: PredicateNonEmpty},
		},
		{
			Name: "Hindustan Times",
			URL:  "https://www.hindustantimes.com/latest-news",
			Rule: Rule{Selector: "h3", Predicate: PredicateNonEmpty},
		},
	}
}

// Validate checks that the rule can be applied.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Selector) == "" {
		return ErrEmptySelector
	}

	switch r.Predicate {
	case PredicateNonEmpty:
	case PredicateMinWords:
		if r.MinWords < 0 {
			return ErrInvalidMinWords
		}
	default:
		return ErrUnknownPredicate
	}

	return nil
}

// Keep reports whether already-trimmed text passes the rule's predicate.
func (r Rule) Keep(text string) bool {
	switch r.Predicate {
	case PredicateMinWords:
		return len(strings.Fields(text)) > r.MinWords
	default:
		return text != ""
	}
}

// Validate checks the source has a name, a URL and a usable rule.
func (s Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("source %s: url is required", s.Name)
	}
	if err := s.Rule.Validate(); err != nil {
		return fmt.Errorf("source %s: %w", s.Name, err)
	}
	return nil
}
