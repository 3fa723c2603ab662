package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrPathNotExist indicates the watched folder does not exist.
	ErrPathNotExist = errors.New("watch path does not exist")

	// ErrPathNotDirectory indicates the watch path is not a directory.
	ErrPathNotDirectory = errors.New("watch path is not a directory")
)

// =============================================================================
// Monitor
// =============================================================================

// Monitor subscribes to filesystem creation events for a single
// folder (non-recursive; screenshots land flat in one directory) and
// feeds qualifying paths into the tracker.
type Monitor struct {
	folder  string
	tracker *Tracker
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

func NewMonitor(folder string, tracker *Tracker, logger *slog.Logger) (*Monitor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := validateWatchFolder(folder); err != nil {
		return nil, err
	}

	return &Monitor{
		folder:  folder,
		tracker: tracker,
		logger:  logger,
	}, nil
}

func validateWatchFolder(folder string) error {
	info, err := os.Stat(folder)
	if os.IsNotExist(err) {
		return ErrPathNotExist
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrPathNotDirectory
	}
	return nil
}

// Start begins delivering creation events to the tracker until the
// context is cancelled. It also scans the folder once at startup so
// files created while the process was down are not missed.
func (m *Monitor) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.folder); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	m.scanExisting()

	go m.run(ctx)
	return nil
}

// scanExisting admits files already present in the folder. They go
// through the same stability tracking as fresh creations, so a file
// still being written at startup is not processed prematurely.
func (m *Monitor) scanExisting() {
	entries, err := os.ReadDir(m.folder)
	if err != nil {
		m.logger.Warn("startup scan failed", "folder", m.folder, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m.tracker.Observe(filepath.Join(m.folder, entry.Name()))
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer m.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(event)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("filesystem watch error", "error", err)
		}
	}
}

func (m *Monitor) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return
	}

	m.tracker.Observe(event.Name)
}
