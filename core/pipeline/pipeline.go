// Package pipeline runs the screenshot processing loop: watch, wait
// for stability, extract text, analyze, organize, index. One
// background loop alternates between stability checks and queue
// draining; files are processed strictly one at a time, so the store
// only ever sees a single writer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lophius/screenkeep/core/audit"
	"github.com/lophius/screenkeep/core/config"
	"github.com/lophius/screenkeep/core/database"
	"github.com/lophius/screenkeep/core/naming"
	"github.com/lophius/screenkeep/core/ocr"
	"github.com/lophius/screenkeep/core/organize"
	"github.com/lophius/screenkeep/core/store"
	"github.com/lophius/screenkeep/core/vision"
	"github.com/lophius/screenkeep/core/watcher"
)

// checkpointEvery is how many processed files pass between checkpoint
// writes during steady-state operation.
const checkpointEvery = 10

// =============================================================================
// Pipeline
// =============================================================================

// Pipeline wires the detector, queue, collaborators, and store into
// one processing loop.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger

	tracker *watcher.Tracker
	monitor *watcher.Monitor
	queue   *watcher.Queue

	extractor ocr.Extractor
	analyzer  vision.Analyzer
	organizer *organize.Organizer
	records   *store.Store
	auditLog  *audit.Log
	lock      *database.AdvisoryLock

	runID          string
	checkpointPath string
	stats          Stats
}

// Options carries the collaborators the pipeline does not construct
// itself. Extractor may be nil when OCR is disabled.
type Options struct {
	Extractor ocr.Extractor
	Analyzer  vision.Analyzer
	Organizer *organize.Organizer
	Records   *store.Store
	AuditLog  *audit.Log
	Lock      *database.AdvisoryLock
	Logger    *slog.Logger

	// CheckpointPath overrides the default checkpoint location.
	CheckpointPath string
}

func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	filter, err := watcher.NewFilter(cfg.Monitoring.FileExtensions, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	queue := watcher.NewQueue()
	tracker := watcher.NewTracker(filter, queue, logger)
	monitor, err := watcher.NewMonitor(cfg.SourceFolder, tracker, logger)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", cfg.SourceFolder, err)
	}

	checkpointPath := opts.CheckpointPath
	if checkpointPath == "" {
		checkpointPath = filepath.Join(filepath.Dir(cfg.Database.Path), "checkpoint.json")
	}

	stats, resumed := loadCheckpoint(checkpointPath)
	if resumed {
		logger.Info("resumed from checkpoint", "total_processed", stats.Total)
	}

	return &Pipeline{
		cfg:            cfg,
		logger:         logger,
		tracker:        tracker,
		monitor:        monitor,
		queue:          queue,
		extractor:      opts.Extractor,
		analyzer:       opts.Analyzer,
		organizer:      opts.Organizer,
		records:        opts.Records,
		auditLog:       opts.AuditLog,
		lock:           opts.Lock,
		runID:          uuid.NewString(),
		checkpointPath: checkpointPath,
		stats:          stats,
	}, nil
}

// Stats returns a copy of the current run counters.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Run processes screenshots until the context is cancelled. Shutdown
// is observed within one poll interval: the in-flight file finishes,
// the checkpoint is written, and the lock is released.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.lock != nil {
		if err := p.lock.Acquire(ctx, 5*time.Second); err != nil {
			return fmt.Errorf("another instance is running: %w", err)
		}
		defer p.lock.Release()
	}

	if err := p.monitor.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	p.logger.Info("pipeline started",
		"run_id", p.runID,
		"watching", p.cfg.SourceFolder,
		"output", p.cfg.OutputBase,
		"dry_run", p.cfg.DryRun)

	ticker := time.NewTicker(p.cfg.Monitoring.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return nil
		case <-ticker.C:
			p.tracker.Check()
			p.drainQueue(ctx)
		}
	}
}

func (p *Pipeline) shutdown() {
	if err := saveCheckpoint(p.checkpointPath, p.runID, p.stats); err != nil {
		p.logger.Warn("failed to save checkpoint on shutdown", "error", err)
	}
	p.logger.Info("pipeline stopped",
		"total", p.stats.Total,
		"success", p.stats.Success,
		"failed", p.stats.Failed,
		"skipped", p.stats.Skipped)
}

func (p *Pipeline) drainQueue(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		path, ok := p.queue.Pop()
		if !ok {
			return
		}

		p.ProcessFile(ctx, path)

		if p.stats.Total%checkpointEvery == 0 {
			if err := saveCheckpoint(p.checkpointPath, p.runID, p.stats); err != nil {
				p.logger.Warn("failed to save checkpoint", "error", err)
			}
			p.logProgress()
		}
	}
}

func (p *Pipeline) logProgress() {
	p.logger.Info("progress",
		"total", p.stats.Total,
		"success", p.stats.Success,
		"failed", p.stats.Failed,
		"skipped", p.stats.Skipped)
}

// ProcessFile runs one screenshot through the full pipeline. Failures
// are counted and logged; they never abort the loop.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) bool {
	p.stats.Total++
	p.logger.Info("processing", "n", p.stats.Total, "file", filepath.Base(path))

	ok, skipped := p.processFile(ctx, path)
	switch {
	case ok:
		p.stats.Success++
	case skipped:
		p.stats.Skipped++
	default:
		p.stats.Failed++
	}
	return ok
}

func (p *Pipeline) processFile(ctx context.Context, path string) (ok, skipped bool) {
	info, err := os.Stat(path)
	if err != nil {
		p.logger.Warn("file vanished before processing", "path", path)
		return false, true
	}

	contentHash, err := naming.FileHash(path)
	if err != nil {
		p.logger.Error("hash failed", "path", path, "error", err)
		return false, false
	}

	meta := ReadImageMeta(path)
	thumbnail := Thumbnail(path, p.cfg.Processing.ThumbnailSize)
	createdDate := fileCreatedDate(info)

	ocrText := p.extractText(ctx, path)

	analysis, err := p.analyzer.Analyze(ctx, path, ocrText)
	if err != nil {
		p.logger.Error("vision analysis failed", "path", path, "error", err)
		return false, false
	}

	if analysis.Confidence < p.cfg.Processing.MinConfidence {
		p.logger.Warn("classification confidence below threshold, skipping",
			"path", path,
			"confidence", analysis.Confidence,
			"threshold", p.cfg.Processing.MinConfidence)
		return false, true
	}

	result, err := p.organizer.Organize(ctx, path, analysis.Category, analysis.Keywords, contentHash, createdDate)
	if err != nil {
		p.logger.Error("organize failed", "path", path, "error", err)
		return false, false
	}

	if p.cfg.DryRun {
		return true, false
	}

	tags := analysis.Keywords
	if len(tags) > store.MaxTags {
		tags = tags[:store.MaxTags]
	}

	rec := &store.Screenshot{
		OriginalFilename:  result.OriginalFilename,
		CurrentFilename:   result.NewFilename,
		Path:              result.DestinationPath,
		Hash:              contentHash,
		SizeBytes:         info.Size(),
		Width:             meta.Width,
		Height:            meta.Height,
		Format:            meta.Format,
		CreatedDate:       createdDate,
		ProcessedDate:     time.Now().UTC(),
		Category:          analysis.Category,
		Keywords:          analysis.Keywords,
		OCRText:           ocrText,
		VisionDescription: analysis.Description,
		Confidence:        analysis.Confidence,
		Thumbnail:         thumbnail,
		Tags:              tags,
	}

	id, err := p.records.Insert(ctx, rec)
	if errors.Is(err, store.ErrDuplicate) {
		p.logger.Info("duplicate content, already indexed", "path", path)
		return false, true
	}
	if err != nil {
		// The file is organized but unindexed; a later reindex run
		// can pick it up. Do not fail the file over this.
		p.logger.Error("indexing failed", "path", result.DestinationPath, "error", err)
		return true, false
	}

	p.stats.ByCategory[string(analysis.Category)]++
	p.logger.Info("indexed",
		"id", id,
		"category", analysis.Category,
		"file", result.NewFilename)
	return true, false
}

func (p *Pipeline) extractText(ctx context.Context, path string) string {
	if p.extractor == nil || !p.cfg.OCR.Enabled {
		return ""
	}

	text, err := p.extractor.ExtractText(ctx, path)
	if err != nil {
		p.logger.Warn("ocr failed", "path", path, "error", err)
		return ""
	}
	return text
}

func fileCreatedDate(info os.FileInfo) time.Time {
	// Creation time is not portably exposed; modification time is the
	// closest cross-platform stand-in for screenshots, which are
	// written once.
	return info.ModTime().UTC()
}
