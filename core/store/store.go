package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/lophius/screenkeep/core/database"
)

// Store is the single writer for screenshot records and their derived
// search rows. Every operation is one transaction: either all derived
// rows for an operation exist, or none do.
type Store struct {
	pool *database.Pool
}

func New(pool *database.Pool) *Store {
	return &Store{pool: pool}
}

// Insert adds a fully-populated screenshot record together with its
// derived search terms. The FTS mirror row is written by the insert
// trigger inside the same transaction. Returns the new record id.
func (s *Store) Insert(ctx context.Context, rec *Screenshot) (int64, error) {
	if !rec.Category.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, rec.Category)
	}

	rec.Confidence = ClampConfidence(rec.Confidence)
	rec.Keywords = truncateList(rec.Keywords, MaxKeywords)
	rec.Tags = truncateList(rec.Tags, MaxTags)

	keywordsJSON, err := EncodeList(rec.Keywords)
	if err != nil {
		return 0, fmt.Errorf("encode keywords: %w", err)
	}
	tagsJSON, err := EncodeList(rec.Tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}

	var id int64
	err = s.pool.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO screenshots (
				original_filename, current_filename, file_path, file_hash,
				file_size_bytes, width, height, format,
				created_date, processed_date, category, keywords,
				ocr_text, vision_description, confidence, thumbnail, tags
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.OriginalFilename, rec.CurrentFilename, rec.Path, rec.Hash,
			rec.SizeBytes, rec.Width, rec.Height, rec.Format,
			rec.CreatedDate.Format(time.RFC3339), rec.ProcessedDate.Format(time.RFC3339),
			string(rec.Category), keywordsJSON,
			rec.OCRText, rec.VisionDescription, rec.Confidence, rec.Thumbnail, tagsJSON,
		)
		if err != nil {
			return classifyConstraint(err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return err
		}

		return insertTerms(tx, id, TermsFor(rec.Keywords, rec.OCRText))
	})
	if err != nil {
		return 0, err
	}

	rec.ID = id
	return id, nil
}

// UpdateParams describes a partial update. Nil fields are left untouched.
type UpdateParams struct {
	Category *Category
	Keywords []string
	Tags     []string
}

// Update applies a partial correction to an existing record. Only the
// supplied fields change. Derived search terms are deliberately NOT
// regenerated here; callers that need fresh terms run RebuildIndex.
// A category change is recorded in user_corrections for later review.
func (s *Store) Update(ctx context.Context, id int64, params UpdateParams) error {
	if params.Category != nil && !params.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *params.Category)
	}

	return s.pool.Transaction(ctx, func(tx *sql.Tx) error {
		var oldCategory, oldKeywords string
		err := tx.QueryRow(
			"SELECT category, keywords FROM screenshots WHERE id = ?", id,
		).Scan(&oldCategory, &oldKeywords)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		assignments := make([]string, 0, 3)
		args := make([]any, 0, 4)

		if params.Category != nil {
			assignments = append(assignments, "category = ?")
			args = append(args, string(*params.Category))
		}
		if params.Keywords != nil {
			keywordsJSON, err := EncodeList(truncateList(params.Keywords, MaxKeywords))
			if err != nil {
				return fmt.Errorf("encode keywords: %w", err)
			}
			assignments = append(assignments, "keywords = ?")
			args = append(args, keywordsJSON)
		}
		if params.Tags != nil {
			tagsJSON, err := EncodeList(truncateList(params.Tags, MaxTags))
			if err != nil {
				return fmt.Errorf("encode tags: %w", err)
			}
			assignments = append(assignments, "tags = ?")
			args = append(args, tagsJSON)
		}

		if len(assignments) == 0 {
			return nil
		}

		args = append(args, id)
		query := "UPDATE screenshots SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}

		if params.Category != nil && string(*params.Category) != oldCategory {
			return recordCorrection(tx, id, oldCategory, string(*params.Category), oldKeywords, params.Keywords)
		}
		return nil
	})
}

// Delete removes a record. The schema cascades to search_terms and the
// delete trigger removes the FTS mirror row, so no orphaned derived
// rows survive.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.pool.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM screenshots WHERE id = ?", id)
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RebuildIndex discards every derived search row and recomputes all of
// them from the stored screenshot records. Returns the number of
// records reindexed.
func (s *Store) RebuildIndex(ctx context.Context) (int, error) {
	count := 0

	err := s.pool.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM search_terms"); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM search_index"); err != nil {
			return err
		}

		rows, err := tx.Query(`
			SELECT id, original_filename, keywords, ocr_text, vision_description, tags
			FROM screenshots`)
		if err != nil {
			return err
		}

		type source struct {
			id                int64
			filename          string
			keywordsJSON      string
			ocrText           string
			visionDescription string
			tagsJSON          string
		}

		var sources []source
		for rows.Next() {
			var src source
			var ocrText, visionDescription, tagsJSON sql.NullString
			if err := rows.Scan(&src.id, &src.filename, &src.keywordsJSON, &ocrText, &visionDescription, &tagsJSON); err != nil {
				rows.Close()
				return err
			}
			src.ocrText = ocrText.String
			src.visionDescription = visionDescription.String
			src.tagsJSON = tagsJSON.String
			sources = append(sources, src)
		}
		if err := rows.Close(); err != nil {
			return err
		}

		for _, src := range sources {
			keywords, err := DecodeList(src.keywordsJSON)
			if err != nil {
				return fmt.Errorf("record %d: %w", src.id, err)
			}

			if err := insertTerms(tx, src.id, TermsFor(keywords, src.ocrText)); err != nil {
				return err
			}

			if _, err := tx.Exec(`
				INSERT INTO search_index (screenshot_id, original_filename, ocr_text, vision_description, keywords, tags)
				VALUES (?, ?, ?, ?, ?, ?)`,
				src.id, src.filename, src.ocrText, src.visionDescription, src.keywordsJSON, src.tagsJSON,
			); err != nil {
				return err
			}

			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func insertTerms(tx *sql.Tx, screenshotID int64, terms []Term) error {
	for _, term := range terms {
		if _, err := tx.Exec(
			"INSERT INTO search_terms (screenshot_id, term, weight) VALUES (?, ?, ?)",
			screenshotID, term.Text, term.Weight,
		); err != nil {
			return err
		}
	}
	return nil
}

// classifyConstraint maps sqlite unique-constraint failures onto
// ErrDuplicate so callers can decide skip-vs-fail without matching on
// driver error strings.
func classifyConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	return err
}
