package indexer

import (
	"os"
	"os/exec"
	"path/filepath"
)

// spawnBackgroundWorker launches `reflex-worker` as a detached OS process
// (not a goroutine: spec §4.7/§5 require "a separate OS process... not a
// thread" so a panic or OOM in symbol extraction can never take the
// foreground indexer down with it). Grounded on the teacher's status-file
// idiom in internal/indexing/pipeline_progress.go, generalized from an
// in-process progress struct to a JSON file a detached process rewrites
// and the foreground polls (see internal/symbolcache).
func spawnBackgroundWorker(root, cacheDir, statusDir string) error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	workerPath := filepath.Join(filepath.Dir(self), "reflex-worker")
	if _, err := os.Stat(workerPath); err != nil {
		// Fall back to PATH lookup (development builds run `go run
		// ./cmd/reflex-worker` alongside `reflex`, not from the same dir).
		if p, lookErr := exec.LookPath("reflex-worker"); lookErr == nil {
			workerPath = p
		} else {
			return err
		}
	}

	cmd := exec.Command(workerPath, "--root", root, "--cache-dir", cacheDir, "--status-dir", statusDir)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setDetached(cmd)

	return cmd.Start()
}

// SpawnWorker is spawnBackgroundWorker exported for cmd/reflex's `worker
// start`, which launches the background symbol worker on demand rather
// than only automatically after an index run.
func SpawnWorker(root, cacheDir, statusDir string) error {
	return spawnBackgroundWorker(root, cacheDir, statusDir)
}
