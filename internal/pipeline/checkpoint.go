package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CheckpointStore persists the per-source-key "last processed" timestamps as
// a small JSON object on disk. Reads are permissive: a missing or corrupt
// file just means a first run. Writes overwrite the whole file and never move
// a key backwards.
type CheckpointStore struct {
	path  string
	state map[string]float64
}

// LoadCheckpoints reads the state file at path. Load failures are logged and
// yield empty state rather than an error.
func LoadCheckpoints(path string) *CheckpointStore {
	cs := &CheckpointStore{path: path, state: make(map[string]float64)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("[Checkpoint] Failed to read state file, starting fresh",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return cs
	}

	if err := json.Unmarshal(raw, &cs.state); err != nil {
		slog.Warn("[Checkpoint] State file is corrupt, starting fresh",
			slog.String("path", path),
			slog.String("error", err.Error()))
		cs.state = make(map[string]float64)
	}
	return cs
}

// Get returns the stored timestamp for key; ok is false on a first run.
func (cs *CheckpointStore) Get(key string) (float64, bool) {
	ts, ok := cs.state[key]
	return ts, ok
}

// Advance moves key forward to ts. A stored value newer than ts is kept, so
// checkpoints never regress.
func (cs *CheckpointStore) Advance(key string, ts float64) {
	if current, ok := cs.state[key]; ok && current >= ts {
		return
	}
	cs.state[key] = ts
}

// Save writes the full state back to disk.
func (cs *CheckpointStore) Save() error {
	if dir := filepath.Dir(cs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("[Checkpoint] failed to create state directory: %w", err)
		}
	}

	raw, err := json.MarshalIndent(cs.state, "", "  ")
	if err != nil {
		return fmt.Errorf("[Checkpoint] failed to marshal state: %w", err)
	}

	if err := os.WriteFile(cs.path, raw, 0o644); err != nil {
		return fmt.Errorf("[Checkpoint] failed to write state file: %w", err)
	}
	return nil
}
