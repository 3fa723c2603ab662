package watcher

import "sync"

// =============================================================================
// Processing Queue
// =============================================================================

// Queue is a FIFO hand-off of stable file paths from the detector to
// the processing loop. Depth is unbounded; the single-user desktop
// scale this targets does not need backpressure.
type Queue struct {
	mu    sync.Mutex
	paths []string
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a path to the tail.
func (q *Queue) Push(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paths = append(q.paths, path)
}

// Pop removes and returns the head path, or "" and false when empty.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.paths) == 0 {
		return "", false
	}

	path := q.paths[0]
	q.paths = q.paths[1:]
	return path, true
}

// Drain removes and returns every queued path in FIFO order.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.paths
	q.paths = nil
	return drained
}

// Len reports the current depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.paths)
}
