package search

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lophius/screenkeep/core/database"
	"github.com/lophius/screenkeep/core/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()

	pool, err := database.Open(t.TempDir()+"/search_test.db", database.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
	})

	migrator := database.NewMigrator(pool, database.Migrations)
	require.NoError(t, migrator.Migrate(context.Background()))

	return NewEngine(pool, slog.Default()), store.New(pool)
}

func fixture(n int, category store.Category, keywords []string, ocrText string) *store.Screenshot {
	name := fmt.Sprintf("screenshot_%03d.png", n)
	return &store.Screenshot{
		OriginalFilename:  name,
		CurrentFilename:   name,
		Path:              fmt.Sprintf("/screenshots/%s", name),
		Hash:              fmt.Sprintf("hash-%03d", n),
		SizeBytes:         2048,
		Width:             1920,
		Height:            1080,
		Format:            "png",
		CreatedDate:       time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Hour),
		ProcessedDate:     time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Hour),
		Category:          category,
		Keywords:          keywords,
		OCRText:           ocrText,
		VisionDescription: "a screenshot",
		Confidence:        0.9,
		Tags:              keywords,
	}
}

func TestSearch_CategoryFilter(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryError, []string{"timeout"}, ""))
	require.NoError(t, err)
	_, err = s.Insert(ctx, fixture(2, store.CategoryCode, []string{"handler"}, ""))
	require.NoError(t, err)

	results := engine.Search(ctx, Query{Category: "error"})
	require.Len(t, results, 1)
	assert.Equal(t, store.CategoryError, results[0].Category)
}

func TestSearch_TextMatchesIndexedTerms(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryError, []string{"database"}, "connection refused"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, fixture(2, store.CategoryUI, []string{"dashboard"}, "settings panel"))
	require.NoError(t, err)

	results := engine.Search(ctx, Query{Text: "data"})
	require.Len(t, results, 1)
	assert.Equal(t, "screenshot_001.png", results[0].OriginalFilename)

	results = engine.Search(ctx, Query{Text: "refused"})
	require.Len(t, results, 1)
	assert.Equal(t, "screenshot_001.png", results[0].OriginalFilename)
}

func TestSearch_DateRangeInclusive(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		_, err := s.Insert(ctx, fixture(n, store.CategoryOther, []string{"misc"}, ""))
		require.NoError(t, err)
	}

	from := time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	results := engine.Search(ctx, Query{DateFrom: &from, DateTo: &to})
	assert.Len(t, results, 2)
}

func TestSearch_OrderedNewestFirst(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		_, err := s.Insert(ctx, fixture(n, store.CategoryOther, []string{"misc"}, ""))
		require.NoError(t, err)
	}

	results := engine.Search(ctx, Query{})
	require.Len(t, results, 3)
	assert.Equal(t, "screenshot_003.png", results[0].OriginalFilename)
	assert.Equal(t, "screenshot_001.png", results[2].OriginalFilename)
}

func TestSearch_LimitClamped(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		_, err := s.Insert(ctx, fixture(n, store.CategoryOther, []string{"misc"}, ""))
		require.NoError(t, err)
	}

	assert.Len(t, engine.Search(ctx, Query{Limit: 2}), 2)
	assert.Len(t, engine.Search(ctx, Query{Limit: MaxLimit + 1}), 5)
}

func TestFullTextSearch_KeywordAndOCRHitSumWeights(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	// "database" is both a keyword (weight 1.0) and an OCR word (0.5),
	// so a query hitting both terms scores 1.5.
	_, err := s.Insert(ctx, fixture(1, store.CategoryError,
		[]string{"database", "timeout"},
		"Database connection failed"))
	require.NoError(t, err)

	results := engine.FullTextSearch(ctx, "database", 10)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.5, results[0].Relevance, 1e-9)
}

func TestFullTextSearch_KeywordHitsRankAboveOCRHits(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryCode,
		[]string{"deployment"}, "build log output"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, fixture(2, store.CategoryOther,
		[]string{"notes"}, "deployment checklist draft"))
	require.NoError(t, err)

	results := engine.FullTextSearch(ctx, "deployment", 10)
	require.Len(t, results, 2)
	assert.Equal(t, "screenshot_001.png", results[0].OriginalFilename)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
}

func TestFullTextSearch_NoMatchReturnsEmpty(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryUI, []string{"settings"}, "preferences"))
	require.NoError(t, err)

	assert.Empty(t, engine.FullTextSearch(ctx, "nonexistent", 10))
}

func TestGetByID(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, fixture(1, store.CategoryData, []string{"chart"}, ""))
	require.NoError(t, err)

	rec, ok := engine.GetByID(ctx, id)
	require.True(t, ok)
	assert.Equal(t, store.CategoryData, rec.Category)
	assert.Equal(t, []string{"chart"}, rec.Keywords)

	_, ok = engine.GetByID(ctx, id+999)
	assert.False(t, ok)
}

func TestAdvancedSearch_StructuredTokens(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryError,
		[]string{"urgent", "important"}, "stack trace"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, fixture(2, store.CategoryError,
		[]string{"minor"}, "warning banner"))
	require.NoError(t, err)

	results := engine.AdvancedSearch(ctx, "category:ERROR tag:important urgent")
	require.Len(t, results, 1)
	assert.Equal(t, "screenshot_001.png", results[0].OriginalFilename)
}

func TestStats_Aggregates(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryError, []string{"a"}, ""))
	require.NoError(t, err)
	_, err = s.Insert(ctx, fixture(2, store.CategoryError, []string{"b"}, ""))
	require.NoError(t, err)
	_, err = s.Insert(ctx, fixture(3, store.CategoryCode, []string{"c"}, ""))
	require.NoError(t, err)

	stats := engine.Stats(ctx)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByCategory["ERROR"])
	assert.Equal(t, 1, stats.ByCategory["CODE"])
	assert.InDelta(t, 0.9, stats.AvgConfidence, 1e-9)
}

func TestStats_EmptyStore(t *testing.T) {
	engine, _ := newTestEngine(t)

	stats := engine.Stats(context.Background())
	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.AvgConfidence)
	assert.Empty(t, stats.ByCategory)
}

func TestEngine_DegradesToEmptyOnStorageError(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryError,
		[]string{"database"}, "connection refused"))
	require.NoError(t, err)

	// A broken term index must surface as empty results, never as an
	// error or a panic in the caller.
	_, err = engine.pool.Exec(ctx, "DROP TABLE search_terms")
	require.NoError(t, err)

	assert.Empty(t, engine.Search(ctx, Query{Text: "database"}))
	assert.Empty(t, engine.FullTextSearch(ctx, "database", 10))
	assert.Empty(t, engine.Suggestions(ctx, "data", 10))

	_, err = engine.pool.Exec(ctx, "DROP TABLE screenshots")
	require.NoError(t, err)

	stats := engine.Stats(ctx)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.ByCategory)

	_, ok := engine.GetByID(ctx, 1)
	assert.False(t, ok)
}

func TestSuggestions_PrefixOrderedByWeight(t *testing.T) {
	engine, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, fixture(1, store.CategoryError,
		[]string{"database"}, "databank entry"))
	require.NoError(t, err)

	suggestions := engine.Suggestions(ctx, "data", 10)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "database", suggestions[0]) // keyword outweighs OCR word
	assert.Equal(t, "databank", suggestions[1])

	assert.Empty(t, engine.Suggestions(ctx, "", 10))
}
