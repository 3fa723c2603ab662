// Package cmd provides the screenkeep CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/config"
	"github.com/lophius/screenkeep/core/database"
	"github.com/lophius/screenkeep/core/storage"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "screenkeep",
	Short: "Screenkeep - automatic screenshot organizer",
	Long: `Screenkeep watches a folder for new screenshots, reads their text,
classifies them with a vision model, renames and files them into a
dated folder hierarchy, and indexes them into a searchable local
database.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultConfig := filepath.Join(storage.ResolveDirs().Config, "config.yaml")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig reads the config file, falling back to defaults when it
// does not exist, and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	setupLogger(cfg)
	return cfg, nil
}

func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// openDatabase opens the index database and applies pending
// migrations. The caller owns the returned pool.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.Pool, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	pool, err := database.Open(cfg.Database.Path, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	migrator := database.NewMigrator(pool, database.Migrations)
	if err := migrator.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return pool, nil
}
