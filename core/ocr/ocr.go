// Package ocr extracts text from screenshot images. The default
// implementation shells out to the tesseract binary and caches results
// on disk keyed by content hash, so reprocessing a file is free.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrImageNotFound indicates the image path does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrImageTooLarge indicates the image exceeds the size limit.
	ErrImageTooLarge = errors.New("image exceeds size limit")

	// ErrTesseractMissing indicates the tesseract binary is not on PATH.
	ErrTesseractMissing = errors.New("tesseract not installed or not in PATH")
)

// =============================================================================
// Extractor
// =============================================================================

// Extractor pulls visible text out of an image. An empty string is a
// valid result for images with no recognizable text.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// =============================================================================
// TesseractExtractor
// =============================================================================

// Config controls the tesseract extractor.
type Config struct {
	// Language is the tesseract language code, e.g. "eng".
	Language string

	// CacheDir holds cached extraction results; empty disables caching.
	CacheDir string

	// MaxImageSizeMB rejects larger files before invoking tesseract.
	MaxImageSizeMB int
}

// TesseractExtractor runs the tesseract CLI.
type TesseractExtractor struct {
	config Config
	cache  *diskCache
	logger *slog.Logger
}

// NewTesseractExtractor verifies the binary is available and prepares
// the result cache.
func NewTesseractExtractor(config Config, logger *slog.Logger) (*TesseractExtractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Language == "" {
		config.Language = "eng"
	}
	if config.MaxImageSizeMB <= 0 {
		config.MaxImageSizeMB = 50
	}

	if _, err := exec.LookPath("tesseract"); err != nil {
		return nil, errors.Join(ErrTesseractMissing, err)
	}

	var cache *diskCache
	if config.CacheDir != "" {
		var err error
		if cache, err = newDiskCache(config.CacheDir); err != nil {
			return nil, fmt.Errorf("ocr cache: %w", err)
		}
	}

	return &TesseractExtractor{
		config: config,
		cache:  cache,
		logger: logger,
	}, nil
}

// ExtractText runs OCR on the image, consulting and populating the
// cache. The contentHash-keyed cache means identical bytes are only
// ever processed once.
func (t *TesseractExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, path)
	}
	if err != nil {
		return "", err
	}

	maxBytes := int64(t.config.MaxImageSizeMB) * 1024 * 1024
	if info.Size() > maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %dMB)",
			ErrImageTooLarge, info.Size(), t.config.MaxImageSizeMB)
	}

	contentHash, err := hashFile(path)
	if err != nil {
		return "", err
	}

	if t.cache != nil {
		if text, ok := t.cache.get(contentHash); ok {
			t.logger.Debug("ocr cache hit", "path", filepath.Base(path))
			return text, nil
		}
	}

	text, err := t.runTesseract(ctx, path)
	if err != nil {
		// Extraction failure is non-fatal for the pipeline; an image
		// without readable text is indexed on vision output alone.
		t.logger.Warn("ocr failed", "path", filepath.Base(path), "error", err)
		return "", nil
	}

	if t.cache != nil {
		if err := t.cache.put(contentHash, text); err != nil {
			t.logger.Warn("ocr cache write failed", "error", err)
		}
	}

	t.logger.Info("ocr extracted text",
		"path", filepath.Base(path), "chars", len(text))
	return text, nil
}

func (t *TesseractExtractor) runTesseract(ctx context.Context, path string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, "tesseract", path, "stdout", "-l", t.config.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ClearCache removes every cached extraction result.
func (t *TesseractExtractor) ClearCache() error {
	if t.cache == nil {
		return nil
	}
	return t.cache.clear()
}
