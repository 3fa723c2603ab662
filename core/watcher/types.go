// Package watcher detects when newly created screenshot files have
// been fully written and hands their paths to the processing queue.
//
// Completion is inferred from size stability: a file whose size is
// unchanged across two consecutive polls, and is non-zero, is declared
// stable. This avoids OS-specific exclusive-lock probing.
package watcher

import "time"

// =============================================================================
// Constants
// =============================================================================

// DefaultPollInterval is the default gap between stability checks.
const DefaultPollInterval = time.Second

// =============================================================================
// WatchedFile
// =============================================================================

// WatchedFile tracks one candidate file between its creation event and
// the moment it is declared stable or disappears.
type WatchedFile struct {
	// Path is the absolute path to the file.
	Path string

	// LastObservedSize is the size recorded on the previous tick.
	// Zero until the first tick after acceptance.
	LastObservedSize int64

	// FirstSeen is when the creation event was accepted.
	FirstSeen time.Time
}
