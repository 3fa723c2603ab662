package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/audit"
	"github.com/lophius/screenkeep/core/database"
	"github.com/lophius/screenkeep/core/naming"
	"github.com/lophius/screenkeep/core/ocr"
	"github.com/lophius/screenkeep/core/organize"
	"github.com/lophius/screenkeep/core/pipeline"
	"github.com/lophius/screenkeep/core/store"
	"github.com/lophius/screenkeep/core/vision"
)

var watchDryRun bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the screenshot folder and process new files",
	Long: `Watch the configured folder for new screenshots. Each fully-written
file is OCR'd, analyzed, renamed, moved into the organized hierarchy,
and indexed for search. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "Compute moves without touching files")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchDryRun {
		cfg.DryRun = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	lock, err := database.NewAdvisoryLock(filepath.Dir(cfg.Database.Path), "screenkeep")
	if err != nil {
		return fmt.Errorf("create lock: %w", err)
	}

	logger := slog.Default()

	var extractor ocr.Extractor
	if cfg.OCR.Enabled {
		tess, err := ocr.NewTesseractExtractor(ocr.Config{
			Language:       cfg.OCR.Language,
			CacheDir:       cfg.OCR.CacheDir,
			MaxImageSizeMB: cfg.Processing.MaxImageSizeMB,
		}, logger)
		if errors.Is(err, ocr.ErrTesseractMissing) {
			logger.Warn("tesseract not found, continuing without OCR")
		} else if err != nil {
			return err
		} else {
			extractor = tess
		}
	}

	analyzer, err := vision.NewClaudeAnalyzer(vision.Config{
		Model:          cfg.Vision.Model,
		MaxTokens:      cfg.Vision.MaxTokens,
		Timeout:        cfg.Vision.Timeout,
		MaxRetries:     cfg.Vision.MaxRetries,
		MaxImageSizeMB: cfg.Processing.MaxImageSizeMB,
	}, logger)
	if err != nil {
		return err
	}

	auditLog := audit.NewLog(pool, logger)
	organizer := organize.NewOrganizer(
		cfg.OutputBase,
		naming.NewNamer(cfg.Organization.MaxFilenameLength),
		auditLog, logger, cfg.DryRun)

	p, err := pipeline.New(cfg, pipeline.Options{
		Extractor: extractor,
		Analyzer:  analyzer,
		Organizer: organizer,
		Records:   store.New(pool),
		AuditLog:  auditLog,
		Lock:      lock,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
