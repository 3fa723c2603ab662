package store

import (
	"context"
	"database/sql"
	"strings"
)

// CorrectionPattern aggregates how often one category was corrected to
// another. The classifier prompt uses the most frequent patterns as
// steering hints.
type CorrectionPattern struct {
	From  string
	To    string
	Count int
}

func recordCorrection(tx *sql.Tx, screenshotID int64, oldCategory, newCategory, oldKeywordsJSON string, newKeywords []string) error {
	_, err := tx.Exec(`
		INSERT INTO user_corrections (
			screenshot_id, original_category, corrected_category,
			original_keywords, corrected_keywords
		) VALUES (?, ?, ?, ?, ?)`,
		screenshotID, oldCategory, newCategory,
		oldKeywordsJSON, strings.Join(newKeywords, ","),
	)
	return err
}

// CorrectionPatterns returns the most common category corrections,
// most frequent first.
func (s *Store) CorrectionPatterns(ctx context.Context, limit int) ([]CorrectionPattern, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT original_category, corrected_category, COUNT(*) AS count
		FROM user_corrections
		GROUP BY original_category, corrected_category
		ORDER BY count DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []CorrectionPattern
	for rows.Next() {
		var p CorrectionPattern
		if err := rows.Scan(&p.From, &p.To, &p.Count); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}
