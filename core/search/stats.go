package search

import (
	"context"
	"database/sql"
)

// =============================================================================
// Statistics
// =============================================================================

// Stats aggregates the indexed corpus: total count, per-category
// counts, per-day counts over the trailing 30 days, and the mean
// confidence (0.0 for an empty store). Errors degrade to an empty
// aggregate.
func (e *Engine) Stats(ctx context.Context) Stats {
	stats := Stats{
		ByCategory: make(map[string]int),
		ByDay:      make(map[string]int),
	}

	if err := e.pool.QueryRow(ctx, "SELECT COUNT(*) FROM screenshots").Scan(&stats.Total); err != nil {
		e.logger.Warn("stats failed", "error", err)
		return stats
	}

	if err := e.scanCategoryCounts(ctx, stats.ByCategory); err != nil {
		e.logger.Warn("stats failed", "error", err)
		return stats
	}

	if err := e.scanDailyCounts(ctx, stats.ByDay); err != nil {
		e.logger.Warn("stats failed", "error", err)
		return stats
	}

	var avg sql.NullFloat64
	if err := e.pool.QueryRow(ctx, "SELECT AVG(confidence) FROM screenshots").Scan(&avg); err != nil {
		e.logger.Warn("stats failed", "error", err)
		return stats
	}
	stats.AvgConfidence = avg.Float64

	return stats
}

func (e *Engine) scanCategoryCounts(ctx context.Context, out map[string]int) error {
	rows, err := e.pool.Query(ctx, `
		SELECT category, COUNT(*) AS count
		FROM screenshots
		GROUP BY category
		ORDER BY count DESC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return err
		}
		out[category] = count
	}
	return rows.Err()
}

func (e *Engine) scanDailyCounts(ctx context.Context, out map[string]int) error {
	rows, err := e.pool.Query(ctx, `
		SELECT DATE(created_date) AS day, COUNT(*) AS count
		FROM screenshots
		WHERE created_date >= DATE('now', '-30 days')
		GROUP BY DATE(created_date)
		ORDER BY day DESC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return err
		}
		out[day] = count
	}
	return rows.Err()
}
