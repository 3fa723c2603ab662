package watcher

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// =============================================================================
// Tracker
// =============================================================================

// Tracker holds the files awaiting size stability. The creation
// callback inserts while the poll loop iterates and mutates, so one
// mutex guards every access for its full duration. That exclusion is
// what guarantees a path is tracked at most once and enqueued at most
// once per stability transition.
type Tracker struct {
	filter *Filter
	queue  *Queue
	logger *slog.Logger

	mu      sync.Mutex
	tracked map[string]*WatchedFile
}

func NewTracker(filter *Filter, queue *Queue, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		filter:  filter,
		queue:   queue,
		logger:  logger,
		tracked: make(map[string]*WatchedFile),
	}
}

// Observe admits a created path into tracking if it passes the filter
// and is not already tracked. Called from the event callback,
// concurrently with Check.
func (t *Tracker) Observe(path string) {
	if !t.filter.Accept(path) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.tracked[path]; exists {
		return
	}

	t.tracked[path] = &WatchedFile{
		Path:      path,
		FirstSeen: time.Now(),
	}
	t.logger.Debug("tracking new file", "path", path)
}

// Check runs one polling tick over every tracked file.
//
// A file that disappeared is dropped silently. A file whose size
// equals the previously observed size and is non-zero is declared
// stable: it leaves tracking and its path is enqueued. Otherwise the
// latest size is recorded for the next tick. Read errors are logged
// and the file stays tracked; such errors are usually transient and
// the next tick retries for free.
//
// Returns the number of files promoted to the queue this tick.
func (t *Tracker) Check() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	promoted := 0
	for path, file := range t.tracked {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				delete(t.tracked, path)
				t.logger.Debug("file disappeared before stabilizing", "path", path)
				continue
			}
			t.logger.Warn("stability check failed, will retry", "path", path, "error", err)
			continue
		}

		size := info.Size()
		if size == file.LastObservedSize && size > 0 {
			delete(t.tracked, path)
			t.queue.Push(path)
			promoted++
			t.logger.Info("file stable, queued for processing",
				"path", path,
				"size", size,
				"tracked_for", time.Since(file.FirstSeen).Round(time.Millisecond))
			continue
		}

		file.LastObservedSize = size
	}

	return promoted
}

// TrackedCount reports how many files are awaiting stability.
func (t *Tracker) TrackedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tracked)
}
