// Package search answers read-only queries against the screenshot
// store: structured filtering, weighted full-text relevance, query
// string parsing, prefix suggestions, and aggregate statistics.
//
// Search is advisory. Every public operation degrades to an empty
// result on storage errors instead of propagating them; a failed query
// must never stall the indexing loop or crash an interactive session.
package search

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lophius/screenkeep/core/database"
	"github.com/lophius/screenkeep/core/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultLimit is the result cap when a query does not specify one.
	DefaultLimit = 100

	// MaxLimit is the hard cap on any single query's result size.
	MaxLimit = 1000

	// DefaultFullTextLimit caps relevance-ranked results.
	DefaultFullTextLimit = 50
)

// =============================================================================
// Query and Result Types
// =============================================================================

// Query holds the structured search filters. All supplied filters are
// conjunctive. Zero values mean "no filter".
type Query struct {
	// Text substring-matches against indexed search terms (case-insensitive).
	Text string

	// Category is an exact match against the fixed category enumeration.
	Category string

	// DateFrom/DateTo are inclusive bounds on created_date.
	DateFrom *time.Time
	DateTo   *time.Time

	// Tags each substring-match the record's serialized tag list.
	Tags []string

	// MinConfidence keeps records with confidence >= this value.
	MinConfidence float64

	// Limit caps results; 0 means DefaultLimit, values above MaxLimit
	// are clamped.
	Limit int
}

// Result is a screenshot with its full-text relevance score attached.
type Result struct {
	store.Screenshot

	// Relevance is the sum of matched search-term weights.
	Relevance float64
}

// Stats aggregates the indexed corpus.
type Stats struct {
	Total         int
	ByCategory    map[string]int
	ByDay         map[string]int // last 30 days, keyed YYYY-MM-DD
	AvgConfidence float64
}

// =============================================================================
// Engine
// =============================================================================

// Engine executes read queries against the store. It holds no state
// besides the connection pool and a small suggestion cache; it never
// writes.
type Engine struct {
	pool        *database.Pool
	logger      *slog.Logger
	suggestions *suggestionCache
}

func NewEngine(pool *database.Pool, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		pool:        pool,
		logger:      logger,
		suggestions: newSuggestionCache(),
	}
}

// =============================================================================
// Structured Search
// =============================================================================

// Search returns records matching every supplied filter, newest
// processed first. Storage errors degrade to an empty slice.
func (e *Engine) Search(ctx context.Context, q Query) []store.Screenshot {
	results, err := e.search(ctx, q)
	if err != nil {
		e.logger.Warn("search failed", "error", err)
		return nil
	}
	return results
}

func (e *Engine) search(ctx context.Context, q Query) ([]store.Screenshot, error) {
	sb := strings.Builder{}
	sb.WriteString(selectColumns + " FROM screenshots WHERE 1=1")
	var args []any

	if q.Text != "" {
		sb.WriteString(` AND id IN (
			SELECT DISTINCT screenshot_id FROM search_terms WHERE term LIKE ?
		)`)
		args = append(args, "%"+strings.ToLower(q.Text)+"%")
	}

	if q.Category != "" {
		sb.WriteString(" AND category = ?")
		args = append(args, strings.ToUpper(q.Category))
	}

	if q.DateFrom != nil {
		sb.WriteString(" AND created_date >= ?")
		args = append(args, q.DateFrom.Format(time.RFC3339))
	}

	if q.DateTo != nil {
		sb.WriteString(" AND created_date <= ?")
		args = append(args, q.DateTo.Format(time.RFC3339))
	}

	for _, tag := range q.Tags {
		sb.WriteString(" AND tags LIKE ?")
		args = append(args, "%"+tag+"%")
	}

	if q.MinConfidence > 0 {
		sb.WriteString(" AND confidence >= ?")
		args = append(args, q.MinConfidence)
	}

	sb.WriteString(" ORDER BY processed_date DESC LIMIT ?")
	args = append(args, clampLimit(q.Limit))

	rows, err := e.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanScreenshots(rows)
}

// =============================================================================
// Full-Text Relevance Search
// =============================================================================

// FullTextSearch matches records whose search terms contain the query
// as a substring, or whose raw OCR text does. Results rank by the sum
// of matched term weights descending: keyword hits (1.0) dominate
// incidental OCR-word hits (0.5). Ties break on processed_date.
func (e *Engine) FullTextSearch(ctx context.Context, query string, limit int) []Result {
	results, err := e.fullTextSearch(ctx, query, limit)
	if err != nil {
		e.logger.Warn("full-text search failed", "query", query, "error", err)
		return nil
	}
	return results
}

func (e *Engine) fullTextSearch(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultFullTextLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	termPattern := "%" + strings.ToLower(query) + "%"
	textPattern := "%" + query + "%"

	rows, err := e.pool.Query(ctx, `
		SELECT `+joinedColumns("s")+`,
		       SUM(CASE WHEN st.term LIKE ? THEN st.weight ELSE 0 END) AS relevance
		FROM screenshots s
		LEFT JOIN search_terms st ON s.id = st.screenshot_id
		WHERE st.term LIKE ? OR s.ocr_text LIKE ?
		GROUP BY s.id
		ORDER BY relevance DESC, s.processed_date DESC
		LIMIT ?`,
		termPattern, termPattern, textPattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		rec, relevance, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Screenshot: *rec, Relevance: relevance})
	}
	return results, rows.Err()
}

// =============================================================================
// Point Lookup
// =============================================================================

// GetByID returns the record and true, or a zero record and false when
// the id is unknown or the lookup fails.
func (e *Engine) GetByID(ctx context.Context, id int64) (*store.Screenshot, bool) {
	row := e.pool.QueryRow(ctx, selectColumns+" FROM screenshots WHERE id = ?", id)

	rec, err := scanScreenshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		e.logger.Warn("get by id failed", "id", id, "error", err)
		return nil, false
	}
	return rec, true
}

// =============================================================================
// Row Scanning
// =============================================================================

const selectColumns = `SELECT id, original_filename, current_filename, file_path, file_hash,
	file_size_bytes, width, height, format, created_date, processed_date,
	category, keywords, ocr_text, vision_description, confidence, thumbnail, tags`

// joinedColumns returns the screenshot column list qualified with a
// table alias for join queries.
func joinedColumns(alias string) string {
	cols := []string{
		"id", "original_filename", "current_filename", "file_path", "file_hash",
		"file_size_bytes", "width", "height", "format", "created_date", "processed_date",
		"category", "keywords", "ocr_text", "vision_description", "confidence", "thumbnail", "tags",
	}
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScreenshotFields(sc rowScanner, extra ...any) (*store.Screenshot, error) {
	var (
		rec                         store.Screenshot
		category                    string
		createdDate, processedDate  string
		keywordsJSON                string
		ocrText, description, tags  sql.NullString
	)

	dest := []any{
		&rec.ID, &rec.OriginalFilename, &rec.CurrentFilename, &rec.Path, &rec.Hash,
		&rec.SizeBytes, &rec.Width, &rec.Height, &rec.Format, &createdDate, &processedDate,
		&category, &keywordsJSON, &ocrText, &description, &rec.Confidence, &rec.Thumbnail, &tags,
	}
	dest = append(dest, extra...)

	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	rec.Category = store.Category(category)
	rec.OCRText = ocrText.String
	rec.VisionDescription = description.String

	var err error
	if rec.CreatedDate, err = parseStoredTime(createdDate); err != nil {
		return nil, err
	}
	if rec.ProcessedDate, err = parseStoredTime(processedDate); err != nil {
		return nil, err
	}
	if rec.Keywords, err = store.DecodeList(keywordsJSON); err != nil {
		return nil, err
	}
	if rec.Tags, err = store.DecodeList(tags.String); err != nil {
		return nil, err
	}

	return &rec, nil
}

func scanScreenshotRow(row *sql.Row) (*store.Screenshot, error) {
	return scanScreenshotFields(row)
}

func scanScreenshots(rows *sql.Rows) ([]store.Screenshot, error) {
	var results []store.Screenshot
	for rows.Next() {
		rec, err := scanScreenshotFields(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *rec)
	}
	return results, rows.Err()
}

func scanResult(rows *sql.Rows) (*store.Screenshot, float64, error) {
	var relevance sql.NullFloat64
	rec, err := scanScreenshotFields(rows, &relevance)
	if err != nil {
		return nil, 0, err
	}
	return rec, relevance.Float64, nil
}

func parseStoredTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", raw)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
