package search

import (
	"context"
	"strings"
	"time"

	"github.com/lophius/screenkeep/core/store"
)

// =============================================================================
// Advanced Query String Parsing
// =============================================================================

// dateRangeSeparator splits the two ends of an inclusive date range.
const dateRangeSeparator = ".."

// AdvancedSearch parses a query string into structured filters and
// executes it through Search. Recognized tokens:
//
//	category:ERROR
//	tag:important
//	date:2026-01-01
//	date:2026-01-01..2026-01-07
//
// Everything else is free text, space-joined in order. Tokens with an
// unrecognized key are dropped, not folded into the free text.
func (e *Engine) AdvancedSearch(ctx context.Context, queryString string) []store.Screenshot {
	return e.Search(ctx, ParseQuery(queryString))
}

// ParseQuery converts an advanced query string into a structured Query.
func ParseQuery(queryString string) Query {
	var q Query
	var freeText []string

	for _, token := range strings.Fields(queryString) {
		key, value, found := strings.Cut(token, ":")
		if !found {
			freeText = append(freeText, token)
			continue
		}

		switch key {
		case "category":
			q.Category = value
		case "tag":
			q.Tags = append(q.Tags, value)
		case "date":
			parseDateFilter(&q, value)
		default:
			// Unknown key: dropped, not treated as free text.
		}
	}

	q.Text = strings.Join(freeText, " ")
	return q
}

func parseDateFilter(q *Query, value string) {
	if start, end, found := strings.Cut(value, dateRangeSeparator); found {
		if from, err := parseQueryDate(start); err == nil {
			q.DateFrom = &from
		}
		if to, err := parseQueryDate(end); err == nil {
			endOfDay := to.Add(24*time.Hour - time.Nanosecond)
			q.DateTo = &endOfDay
		}
		return
	}

	if from, err := parseQueryDate(value); err == nil {
		q.DateFrom = &from
	}
}

func parseQueryDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
