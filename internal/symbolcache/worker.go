package symbolcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reflexsearch/reflex/internal/content"
	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/langparser"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/types"
	"github.com/reflexsearch/reflex/internal/walker"
)

// Worker is cmd/reflex-worker's main loop: poll the metadata store for
// files the foreground Indexer committed but never parsed (its errgroup
// pool skips unsupported languages, and a crash mid-run can leave some
// committed files unparsed), backfill their symbols, and publish progress
// to the status file. It exits once it has been idle (no pending work)
// for IdleTimeout, so a detached worker never lingers forever.
type Worker struct {
	Root         string
	CacheDir     string
	StatusDir    string
	BranchKey    string
	PollInterval time.Duration
	IdleTimeout  time.Duration
}

// Run polls until ctx is cancelled or the worker has been idle past
// IdleTimeout. It acquires its own pidfile/flock pair (separate from the
// Indexer's writer lock — the worker only ever writes symbols and file
// hashes to the metadata store, never to the blobs) so at most one
// background worker runs per cache directory at a time, matching spec
// §4.7's "generalized from one writer lock to one background worker
// lock using the same primitive."
func (w *Worker) Run(ctx context.Context) error {
	lock, err := acquireWorkerLock(w.StatusDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	branch := w.BranchKey
	if branch == "" {
		branch = "default"
	}
	started := time.Now()
	idleSince := time.Time{}

	for {
		processed, total, err := w.runOnce(branch)
		now := time.Now()
		st := Status{PID: os.Getpid(), StartedAt: started, UpdatedAt: now, TotalPending: total, Processed: processed}
		if err != nil {
			st.State = StateError
			st.Error = err.Error()
			WriteStatus(w.StatusDir, st)
			return err
		}

		if total == 0 {
			st.State = StateIdle
			if idleSince.IsZero() {
				idleSince = now
			}
			WriteStatus(w.StatusDir, st)
			if now.Sub(idleSince) >= w.IdleTimeout {
				return nil
			}
		} else {
			idleSince = time.Time{}
			st.State = StateDone
			WriteStatus(w.StatusDir, st)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.PollInterval):
		}
	}
}

// runOnce backfills every file currently missing symbols, returning how
// many it processed and how many were pending at the start of the pass.
func (w *Worker) runOnce(branchKey string) (processed, total int, err error) {
	store, err := metadata.Open(filepath.Join(w.CacheDir, indexer.MetadataFileName))
	if err != nil {
		return 0, 0, fmt.Errorf("symbolcache: open metadata store: %w", err)
	}
	defer store.Close()

	contentStore, err := content.Open(filepath.Join(w.CacheDir, indexer.ContentFileName))
	if err != nil {
		return 0, 0, fmt.Errorf("symbolcache: open content store: %w", err)
	}
	defer contentStore.Close()

	all, err := store.FilesNeedingSymbols()
	if err != nil {
		return 0, 0, fmt.Errorf("symbolcache: list pending files: %w", err)
	}
	parser := langparser.NewParser()

	var pending []types.File
	for _, f := range all {
		if parser.Supported(f.Language) {
			pending = append(pending, f)
		}
	}
	total = len(pending)

	for _, f := range pending {
		data, ok := contentStore.Get(f.ID)
		if !ok {
			continue
		}
		result, err := parser.Parse(f.ID, f.Language, data)
		if err != nil {
			continue // per-file parse failure is non-fatal (spec §7 ParseFailed)
		}
		if err := store.ReplaceSymbols(f.ID, result.Symbols); err != nil {
			return processed, total, fmt.Errorf("symbolcache: replace symbols for %s: %w", f.Path, err)
		}
		if err := store.SetFileHash(f.ID, branchKey, walker.CanonicalHash(data)); err != nil {
			return processed, total, fmt.Errorf("symbolcache: set hash for %s: %w", f.Path, err)
		}
		processed++
	}
	return processed, total, nil
}
