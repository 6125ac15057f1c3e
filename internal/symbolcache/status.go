// Package symbolcache provides the query pipeline's hash-gated symbol
// lookup and the detached background worker that backfills symbols the
// foreground Indexer left unparsed. The detached-process model is new
// relative to the teacher (which runs everything in-process); it reuses
// the teacher's own status-reporting idiom from
// internal/indexing/pipeline_progress.go (a progress struct periodically
// surfaced to callers), generalized from an in-memory struct polled by the
// same process to a JSON file on disk polled by a different one.
package symbolcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State is the background worker's lifecycle stage.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

// Status is written to <statusDir>/worker-status.json after every polling
// pass of the worker, and read back by the foreground CLI's `worker`
// commands.
type Status struct {
	State          State     `json:"state"`
	PID            int       `json:"pid"`
	TotalPending   int       `json:"total_pending"`
	Processed      int       `json:"processed"`
	CurrentFile    string    `json:"current_file,omitempty"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const statusFileName = "worker-status.json"

// WriteStatus serializes st to <statusDir>/worker-status.json via a
// temp-file-plus-rename so a concurrent reader never observes a partial
// write, mirroring the atomic-publish pattern the trigram/content blob
// writers use.
func WriteStatus(statusDir string, st Status) error {
	if err := os.MkdirAll(statusDir, 0o755); err != nil {
		return fmt.Errorf("symbolcache: create status dir: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("symbolcache: marshal status: %w", err)
	}
	path := filepath.Join(statusDir, statusFileName)
	tmp, err := os.CreateTemp(statusDir, ".worker-status-*.tmp")
	if err != nil {
		return fmt.Errorf("symbolcache: create temp status file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("symbolcache: write status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("symbolcache: close status temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("symbolcache: rename status into place: %w", err)
	}
	return nil
}

// ReadStatus reads back the most recently published Status. A missing
// file means the worker has never run in this cache directory; that is
// not an error, callers treat it as StateIdle with zero counts.
func ReadStatus(statusDir string) (Status, error) {
	data, err := os.ReadFile(filepath.Join(statusDir, statusFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Status{State: StateIdle}, nil
		}
		return Status{}, fmt.Errorf("symbolcache: read status: %w", err)
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("symbolcache: parse status: %w", err)
	}
	return st, nil
}
