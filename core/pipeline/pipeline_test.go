package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lophius/screenkeep/core/audit"
	"github.com/lophius/screenkeep/core/config"
	"github.com/lophius/screenkeep/core/database"
	"github.com/lophius/screenkeep/core/naming"
	"github.com/lophius/screenkeep/core/organize"
	"github.com/lophius/screenkeep/core/search"
	"github.com/lophius/screenkeep/core/store"
	"github.com/lophius/screenkeep/core/vision"
)

// stubAnalyzer returns a fixed analysis without touching the network.
type stubAnalyzer struct {
	analysis vision.Analysis
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string, _ string) (*vision.Analysis, error) {
	a := s.analysis
	return &a, nil
}

// stubExtractor returns fixed OCR text.
type stubExtractor struct {
	text string
}

func (s *stubExtractor) ExtractText(_ context.Context, _ string) (string, error) {
	return s.text, nil
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestPipeline(t *testing.T, analysis vision.Analysis) (*Pipeline, *search.Engine, string) {
	t.Helper()

	source := t.TempDir()
	output := t.TempDir()
	dataDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.SourceFolder = source
	cfg.OutputBase = output
	cfg.Database.Path = filepath.Join(dataDir, "test.db")
	cfg.OCR.Enabled = true
	cfg.Monitoring.PollInterval = 10 * time.Millisecond

	pool, err := database.Open(cfg.Database.Path, database.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
	})
	migrator := database.NewMigrator(pool, database.Migrations)
	require.NoError(t, migrator.Migrate(context.Background()))

	records := store.New(pool)
	auditLog := audit.NewLog(pool, nil)
	organizer := organize.NewOrganizer(output, naming.NewNamer(0), auditLog, nil, false)

	p, err := New(cfg, Options{
		Extractor:      &stubExtractor{text: "Database connection timeout"},
		Analyzer:       &stubAnalyzer{analysis: analysis},
		Organizer:      organizer,
		Records:        records,
		AuditLog:       auditLog,
		CheckpointPath: filepath.Join(dataDir, "checkpoint.json"),
	})
	require.NoError(t, err)

	return p, search.NewEngine(pool, nil), source
}

func errorAnalysis() vision.Analysis {
	return vision.Analysis{
		Description: "A database timeout error dialog.",
		Category:    store.CategoryError,
		Keywords:    []string{"database", "timeout"},
		Confidence:  0.9,
	}
}

func TestProcessFile_FullPipeline(t *testing.T) {
	p, engine, source := newTestPipeline(t, errorAnalysis())
	ctx := context.Background()

	path := writePNG(t, source, "shot.png", 64, 48)
	require.True(t, p.ProcessFile(ctx, path))

	assert.Equal(t, 1, p.Stats().Success)
	assert.Equal(t, 1, p.Stats().ByCategory["ERROR"])
	assert.NoFileExists(t, path)

	// The record is indexed with derived metadata.
	results := engine.Search(ctx, search.Query{})
	require.Len(t, results, 1)
	got := results[0]
	assert.Equal(t, "shot.png", got.OriginalFilename)
	assert.Equal(t, 64, got.Width)
	assert.Equal(t, 48, got.Height)
	assert.Equal(t, store.CategoryError, got.Category)
	assert.Equal(t, "Database connection timeout", got.OCRText)
	assert.NotEmpty(t, got.Thumbnail)
	assert.FileExists(t, got.Path)
}

func TestProcessFile_LowConfidenceSkipped(t *testing.T) {
	analysis := errorAnalysis()
	analysis.Confidence = 0.3
	p, _, source := newTestPipeline(t, analysis)

	path := writePNG(t, source, "shot.png", 32, 32)
	assert.False(t, p.ProcessFile(context.Background(), path))
	assert.Equal(t, 1, p.Stats().Skipped)
	assert.FileExists(t, path) // skipped files stay put
}

func TestProcessFile_DuplicateContentSkipped(t *testing.T) {
	p, _, source := newTestPipeline(t, errorAnalysis())
	ctx := context.Background()

	first := writePNG(t, source, "a.png", 32, 32)
	require.True(t, p.ProcessFile(ctx, first))

	// Identical pixels, different filename: same content hash.
	second := writePNG(t, source, "b.png", 32, 32)
	assert.False(t, p.ProcessFile(ctx, second))
	assert.Equal(t, 1, p.Stats().Skipped)
	assert.Equal(t, 1, p.Stats().Success)
}

func TestProcessFile_VanishedFileSkipped(t *testing.T) {
	p, _, source := newTestPipeline(t, errorAnalysis())

	assert.False(t, p.ProcessFile(context.Background(), filepath.Join(source, "gone.png")))
	assert.Equal(t, 1, p.Stats().Skipped)
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")

	stats := newStats()
	stats.Total = 12
	stats.Success = 10
	stats.Failed = 1
	stats.Skipped = 1
	stats.ByCategory["CODE"] = 7

	require.NoError(t, saveCheckpoint(path, "run-1", stats))

	loaded, resumed := loadCheckpoint(path)
	assert.True(t, resumed)
	assert.Equal(t, stats, loaded)
}

func TestCheckpoint_MissingStartsFresh(t *testing.T) {
	loaded, resumed := loadCheckpoint(filepath.Join(t.TempDir(), "none.json"))
	assert.False(t, resumed)
	assert.Equal(t, 0, loaded.Total)
	assert.NotNil(t, loaded.ByCategory)
}

func TestReadImageMeta(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "img.png", 120, 80)

	meta := ReadImageMeta(path)
	assert.Equal(t, 120, meta.Width)
	assert.Equal(t, 80, meta.Height)
	assert.Equal(t, "png", meta.Format)
}

func TestThumbnail_BoundsLongerEdge(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "img.png", 600, 300)

	data := Thumbnail(path, 150)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 75, img.Bounds().Dy())
}
