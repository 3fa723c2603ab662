// Package audit records every attempted filesystem mutation in an
// append-only operation log and implements time-bounded rollback of
// successful moves.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lophius/screenkeep/core/database"
	"github.com/lophius/screenkeep/core/storage"
)

// =============================================================================
// Operation and Status Enumerations
// =============================================================================

// Operation names the kind of mutation an entry records.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpMove   Operation = "move"
	OpRename Operation = "rename"
	OpDelete Operation = "delete"
)

// Status tracks an entry's lifecycle. The only legal transition is
// StatusSuccess to StatusRolledBack, applied exactly once.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// =============================================================================
// Entry
// =============================================================================

// Entry is one row in the operation log. Entries are never deleted;
// the log is the audit trail.
type Entry struct {
	ID           int64
	ScreenshotID *int64
	Operation    Operation
	Timestamp    time.Time
	OldPath      string
	NewPath      string
	OldFilename  string
	NewFilename  string
	Status       Status
	ErrorMessage string
}

// =============================================================================
// Log
// =============================================================================

// Log is the single writer for the operation log table.
type Log struct {
	pool   *database.Pool
	logger *slog.Logger
}

func NewLog(pool *database.Pool, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		pool:   pool,
		logger: logger,
	}
}

// Record appends one entry. Every attempted move must produce exactly
// one call, with StatusSuccess or StatusFailed, whether or not the
// filesystem operation worked.
func (l *Log) Record(ctx context.Context, entry Entry) (int64, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var screenshotID any
	if entry.ScreenshotID != nil {
		screenshotID = *entry.ScreenshotID
	}

	var errorMessage any
	if entry.ErrorMessage != "" {
		errorMessage = entry.ErrorMessage
	}

	result, err := l.pool.Exec(ctx, `
		INSERT INTO processing_log (
			screenshot_id, operation, timestamp,
			old_path, new_path, old_filename, new_filename,
			status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		screenshotID, string(entry.Operation), entry.Timestamp.Format(time.RFC3339),
		entry.OldPath, entry.NewPath, entry.OldFilename, entry.NewFilename,
		string(entry.Status), errorMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("record operation: %w", err)
	}
	return result.LastInsertId()
}

// RecordMove logs one attempted move. A nil moveErr records success;
// otherwise the entry is marked failed with the error text.
func (l *Log) RecordMove(ctx context.Context, screenshotID *int64, oldPath, newPath string, moveErr error) error {
	entry := Entry{
		ScreenshotID: screenshotID,
		Operation:    OpMove,
		OldPath:      oldPath,
		NewPath:      newPath,
		OldFilename:  filepath.Base(oldPath),
		NewFilename:  filepath.Base(newPath),
		Status:       StatusSuccess,
	}
	if moveErr != nil {
		entry.Status = StatusFailed
		entry.ErrorMessage = moveErr.Error()
	}

	_, err := l.Record(ctx, entry)
	return err
}

// =============================================================================
// Rollback
// =============================================================================

// Rollback undoes successful moves recorded within the trailing hour
// window, most recent first. A file already gone from its new path is
// skipped without error and its entry keeps its success status. Each
// entry is isolated: one failure never aborts the rest. Returns the
// number of entries actually rolled back.
func (l *Log) Rollback(ctx context.Context, hours int) (int, error) {
	entries, err := l.rollbackCandidates(ctx, hours)
	if err != nil {
		return 0, fmt.Errorf("select rollback candidates: %w", err)
	}

	rolledBack := 0
	for _, entry := range entries {
		rolled, err := l.rollbackEntry(ctx, entry)
		if err != nil {
			l.logger.Warn("rollback entry failed, continuing",
				"entry_id", entry.ID,
				"new_path", entry.NewPath,
				"error", err)
			continue
		}
		if rolled {
			rolledBack++
		}
	}

	if rolledBack > 0 {
		l.logger.Info("rollback complete", "rolled_back", rolledBack, "window_hours", hours)
	}
	return rolledBack, nil
}

func (l *Log) rollbackCandidates(ctx context.Context, hours int) ([]Entry, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	rows, err := l.pool.Query(ctx, `
		SELECT id, old_path, new_path, timestamp
		FROM processing_log
		WHERE operation = ? AND status = ? AND timestamp >= ?
		ORDER BY timestamp DESC`,
		string(OpMove), string(StatusSuccess), cutoff.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var timestamp string
		if err := rows.Scan(&entry.ID, &entry.OldPath, &entry.NewPath, &timestamp); err != nil {
			return nil, err
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339, timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// rollbackEntry moves one file back and flips its entry's status.
// A file already gone from new_path is skipped: not rolled back, not
// an error, status left untouched.
func (l *Log) rollbackEntry(ctx context.Context, entry Entry) (bool, error) {
	if _, err := os.Stat(entry.NewPath); os.IsNotExist(err) {
		l.logger.Debug("rollback skipping moved or deleted file",
			"entry_id", entry.ID, "new_path", entry.NewPath)
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(entry.OldPath), 0o755); err != nil {
		return false, fmt.Errorf("create original directory: %w", err)
	}
	if err := storage.MoveFile(entry.NewPath, entry.OldPath); err != nil {
		return false, fmt.Errorf("move back: %w", err)
	}

	_, err := l.pool.Exec(ctx,
		"UPDATE processing_log SET status = ? WHERE id = ? AND status = ?",
		string(StatusRolledBack), entry.ID, string(StatusSuccess))
	if err != nil {
		return false, err
	}
	return true, nil
}

// History returns the most recent entries, newest first.
func (l *Log) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, screenshot_id, operation, timestamp,
		       old_path, new_path, old_filename, new_filename,
		       status, error_message
		FROM processing_log
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			screenshotID sql.NullInt64
			timestamp    string
			operation    string
			status       string
			errorMessage sql.NullString
		)
		err := rows.Scan(&entry.ID, &screenshotID, &operation, &timestamp,
			&entry.OldPath, &entry.NewPath, &entry.OldFilename, &entry.NewFilename,
			&status, &errorMessage)
		if err != nil {
			return nil, err
		}

		if screenshotID.Valid {
			id := screenshotID.Int64
			entry.ScreenshotID = &id
		}
		entry.Operation = Operation(operation)
		entry.Status = Status(status)
		entry.ErrorMessage = errorMessage.String
		if entry.Timestamp, err = time.Parse(time.RFC3339, timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
