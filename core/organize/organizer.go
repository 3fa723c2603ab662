// Package organize moves processed screenshots into a dated folder
// hierarchy: <base>/YYYY-MM/<Category>[/<Subcategory>]/<new name>.
// Every attempted move is recorded in the audit log.
package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lophius/screenkeep/core/audit"
	"github.com/lophius/screenkeep/core/naming"
	"github.com/lophius/screenkeep/core/storage"
	"github.com/lophius/screenkeep/core/store"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrSourceMissing indicates the file to organize no longer exists.
	ErrSourceMissing = errors.New("source file not found")
)

// =============================================================================
// Result
// =============================================================================

// Result describes the outcome of one organize attempt.
type Result struct {
	OriginalFilename string
	NewFilename      string
	SourcePath       string
	DestinationPath  string
	DryRun           bool
}

// =============================================================================
// Organizer
// =============================================================================

// Organizer renames and relocates screenshots. With DryRun set it
// computes destinations without touching the filesystem or the audit
// log.
type Organizer struct {
	baseFolder string
	namer      *naming.Namer
	log        *audit.Log
	logger     *slog.Logger
	dryRun     bool
}

func NewOrganizer(baseFolder string, namer *naming.Namer, log *audit.Log, logger *slog.Logger, dryRun bool) *Organizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Organizer{
		baseFolder: baseFolder,
		namer:      namer,
		log:        log,
		logger:     logger,
		dryRun:     dryRun,
	}
}

// Organize renames sourcePath per the classification and moves it into
// the dated category folder. The audit entry is written whether or not
// the move succeeds.
func (o *Organizer) Organize(ctx context.Context, sourcePath string, category store.Category, keywords []string, contentHash string, createdDate time.Time) (*Result, error) {
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, sourcePath)
	}

	targetFolder := o.TargetFolder(category, keywords, createdDate)
	newFilename := o.namer.Generate(category, keywords, contentHash, createdDate, filepath.Ext(sourcePath))

	result := &Result{
		OriginalFilename: filepath.Base(sourcePath),
		SourcePath:       sourcePath,
		DryRun:           o.dryRun,
	}

	if o.dryRun {
		result.NewFilename = newFilename
		result.DestinationPath = filepath.Join(targetFolder, newFilename)
		o.logger.Info("dry run, would move",
			"from", sourcePath, "to", result.DestinationPath)
		return result, nil
	}

	if err := os.MkdirAll(targetFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create target folder: %w", err)
	}

	newFilename, err := naming.ResolveDuplicate(targetFolder, newFilename)
	if err != nil {
		return nil, err
	}
	result.NewFilename = newFilename
	result.DestinationPath = filepath.Join(targetFolder, newFilename)

	moveErr := storage.MoveFile(sourcePath, result.DestinationPath)
	if logErr := o.log.RecordMove(ctx, nil, sourcePath, result.DestinationPath, moveErr); logErr != nil {
		o.logger.Error("failed to record move in audit log", "error", logErr)
	}
	if moveErr != nil {
		return nil, fmt.Errorf("move file: %w", moveErr)
	}

	o.logger.Info("organized screenshot",
		"from", result.OriginalFilename,
		"to", result.DestinationPath)
	return result, nil
}

// TargetFolder computes the destination directory without creating it.
func (o *Organizer) TargetFolder(category store.Category, keywords []string, date time.Time) string {
	parts := []string{
		o.baseFolder,
		date.Format("2006-01"),
		titleCase(string(category)),
	}
	if sub := naming.Subcategory(category, keywords); sub != "" {
		parts = append(parts, sub)
	}
	return filepath.Join(parts...)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
