package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// =============================================================================
// Run Statistics and Checkpointing
// =============================================================================

// Stats counts processing outcomes for the current run, continued
// across restarts via the checkpoint file.
type Stats struct {
	Total      int            `json:"total"`
	Success    int            `json:"success"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	ByCategory map[string]int `json:"by_category"`
}

func newStats() Stats {
	return Stats{ByCategory: make(map[string]int)}
}

// checkpoint is the persisted resume state.
type checkpoint struct {
	RunID     string    `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
	Stats     Stats     `json:"stats"`
}

// loadCheckpoint restores stats from a previous run. A missing or
// corrupt file starts fresh.
func loadCheckpoint(path string) (Stats, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return newStats(), false
	}

	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return newStats(), false
	}
	if cp.Stats.ByCategory == nil {
		cp.Stats.ByCategory = make(map[string]int)
	}
	return cp.Stats, true
}

// saveCheckpoint persists the stats atomically via rename.
func saveCheckpoint(path, runID string, stats Stats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(checkpoint{
		RunID:     runID,
		UpdatedAt: time.Now().UTC(),
		Stats:     stats,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
