package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// =============================================================================
// Suggestions
// =============================================================================

const (
	// DefaultSuggestionLimit caps suggestion results.
	DefaultSuggestionLimit = 10

	// suggestionCacheSize bounds the prefix cache.
	suggestionCacheSize = 256

	// suggestionCacheTTL keeps suggestions fresh enough for an
	// interactive session while absorbing per-keystroke queries.
	suggestionCacheTTL = 30 * time.Second
)

type suggestionCache struct {
	lru *expirable.LRU[string, []string]
}

func newSuggestionCache() *suggestionCache {
	return &suggestionCache{
		lru: expirable.NewLRU[string, []string](suggestionCacheSize, nil, suggestionCacheTTL),
	}
}

// Suggestions returns distinct indexed terms starting with the
// case-folded prefix, highest weight first. Results are cached briefly
// since the typical caller issues one query per keystroke.
func (e *Engine) Suggestions(ctx context.Context, prefix string, limit int) []string {
	if prefix == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	key := fmt.Sprintf("%s|%d", strings.ToLower(prefix), limit)
	if cached, ok := e.suggestions.lru.Get(key); ok {
		return cached
	}

	suggestions, err := e.querySuggestions(ctx, prefix, limit)
	if err != nil {
		e.logger.Warn("suggestions failed", "prefix", prefix, "error", err)
		return nil
	}

	e.suggestions.lru.Add(key, suggestions)
	return suggestions
}

func (e *Engine) querySuggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := e.pool.Query(ctx, `
		SELECT DISTINCT term
		FROM search_terms
		WHERE term LIKE ?
		ORDER BY weight DESC
		LIMIT ?`,
		strings.ToLower(prefix)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, term)
	}
	return suggestions, rows.Err()
}
