package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.SourceFolder)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.Equal(t, time.Second, cfg.Monitoring.PollInterval)
	assert.Contains(t, cfg.Monitoring.FileExtensions, ".png")
	assert.Equal(t, 0.6, cfg.Processing.MinConfidence)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
source_folder: /tmp/shots
dry_run: true
monitoring:
  poll_interval: 2s
processing:
  min_confidence: 0.8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/shots", cfg.SourceFolder)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 2*time.Second, cfg.Monitoring.PollInterval)
	assert.Equal(t, 0.8, cfg.Processing.MinConfidence)

	// Untouched fields keep their defaults.
	assert.Contains(t, cfg.Monitoring.FileExtensions, ".jpg")
	assert.NotEmpty(t, cfg.Database.Path)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestLoadOrDefault_MissingFileFallsBack(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "monitoring: [not a mapping")
	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source folder", func(c *Config) { c.SourceFolder = "" }},
		{"empty output base", func(c *Config) { c.OutputBase = "" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero poll interval", func(c *Config) { c.Monitoring.PollInterval = 0 }},
		{"confidence above one", func(c *Config) { c.Processing.MinConfidence = 1.5 }},
		{"no extensions", func(c *Config) { c.Monitoring.FileExtensions = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCREENKEEP_OUTPUT_BASE", "/tmp/override")
	t.Setenv("SCREENKEEP_DRY_RUN", "true")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override", cfg.OutputBase)
	assert.True(t, cfg.DryRun)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "shots"), expandPath("~/shots"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}
