// Package config loads and validates screenkeep configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lophius/screenkeep/core/storage"
)

var (
	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidConfig indicates the config failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	SourceFolder    string   `yaml:"source_folder"`
	OutputBase      string   `yaml:"output_base"`
	DryRun          bool     `yaml:"dry_run"`
	ExcludePatterns []string `yaml:"exclude_patterns"`

	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	OCR          OCRConfig          `yaml:"ocr"`
	Vision       VisionConfig       `yaml:"vision"`
	Processing   ProcessingConfig   `yaml:"processing"`
	Organization OrganizationConfig `yaml:"organization"`
	Database     DatabaseConfig     `yaml:"database"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type MonitoringConfig struct {
	FileExtensions []string      `yaml:"file_extensions"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
	CacheDir string `yaml:"cache_dir"`
}

type VisionConfig struct {
	Model      string        `yaml:"model"`
	MaxTokens  int           `yaml:"max_tokens"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type ProcessingConfig struct {
	MinConfidence  float64 `yaml:"min_confidence"`
	MaxImageSizeMB int     `yaml:"max_image_size_mb"`
	ThumbnailSize  int     `yaml:"thumbnail_size"`
}

type OrganizationConfig struct {
	MaxFilenameLength int  `yaml:"max_filename_length"`
	PreserveOriginal  bool `yaml:"preserve_original"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// DefaultConfig returns a configuration with sensible defaults.
// Paths are resolved against the platform data directories.
func DefaultConfig() *Config {
	dirs := storage.ResolveDirs()

	return &Config{
		SourceFolder:    storage.DefaultScreenshotFolder(),
		OutputBase:      filepath.Join(dirs.Data, "organized"),
		DryRun:          false,
		ExcludePatterns: []string{"*.tmp", "*cache*"},
		Monitoring: MonitoringConfig{
			FileExtensions: []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif"},
			PollInterval:   time.Second,
		},
		OCR: OCRConfig{
			Enabled:  true,
			Language: "eng",
			CacheDir: dirs.CacheDir("ocr"),
		},
		Vision: VisionConfig{
			Model:      "claude-haiku-4-5-20251001",
			MaxTokens:  1000,
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Processing: ProcessingConfig{
			MinConfidence:  0.6,
			MaxImageSizeMB: 50,
			ThumbnailSize:  150,
		},
		Organization: OrganizationConfig{
			MaxFilenameLength: 200,
			PreserveOriginal:  false,
		},
		Database: DatabaseConfig{
			Path: dirs.DataDir("screenshots.db"),
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    filepath.Join(dirs.LogDir(), "screenkeep.log"),
			Console: true,
		},
	}
}

// Load reads a YAML config file, merges it over the defaults, applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	cfg.applyEnvOverrides()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads the config at path, falling back to the defaults
// if the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		cfg.expandPaths()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCREENKEEP_OUTPUT_BASE"); v != "" {
		c.OutputBase = v
	}
	if v := os.Getenv("SCREENKEEP_SOURCE_FOLDER"); v != "" {
		c.SourceFolder = v
	}
	if v := os.Getenv("SCREENKEEP_DRY_RUN"); v != "" {
		c.DryRun = strings.EqualFold(v, "true") || v == "1"
	}
}

func (c *Config) expandPaths() {
	c.SourceFolder = expandPath(c.SourceFolder)
	c.OutputBase = expandPath(c.OutputBase)
	c.Database.Path = expandPath(c.Database.Path)
	c.OCR.CacheDir = expandPath(c.OCR.CacheDir)
	c.Logging.File = expandPath(c.Logging.File)
}

// expandPath expands a leading ~ and any environment variables.
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Validate checks cross-field constraints the YAML schema cannot express.
func (c *Config) Validate() error {
	if c.SourceFolder == "" {
		return fmt.Errorf("%w: source_folder cannot be empty", ErrInvalidConfig)
	}
	if c.OutputBase == "" {
		return fmt.Errorf("%w: output_base cannot be empty", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path cannot be empty", ErrInvalidConfig)
	}
	if c.Monitoring.PollInterval <= 0 {
		return fmt.Errorf("%w: monitoring.poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Processing.MinConfidence < 0 || c.Processing.MinConfidence > 1 {
		return fmt.Errorf("%w: processing.min_confidence must be in [0,1]", ErrInvalidConfig)
	}
	if len(c.Monitoring.FileExtensions) == 0 {
		return fmt.Errorf("%w: monitoring.file_extensions cannot be empty", ErrInvalidConfig)
	}
	return nil
}
