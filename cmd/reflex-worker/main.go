// Command reflex-worker is the detached background process
// internal/indexer.spawnBackgroundWorker launches after an index run: it
// polls the metadata store for files committed but never parsed, backfills
// their symbols, and exits once idle past its timeout. Grounded on
// cmd/lci/main.go's flag-parsing shape but reduced to the handful of flags
// the parent Indexer actually passes (--root, --cache-dir, --status-dir).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reflexsearch/reflex/internal/symbolcache"
)

func main() {
	root := flag.String("root", "", "workspace root")
	cacheDir := flag.String("cache-dir", "", "cache directory")
	statusDir := flag.String("status-dir", "", "status/lock directory (defaults to cache-dir)")
	branchKey := flag.String("branch", "default", "branch key to gate symbol-cache hits against")
	pollSeconds := flag.Int("poll-interval", 2, "seconds between pending-work polls")
	idleTimeoutMs := flag.Int("idle-timeout-ms", 5*60*1000, "exit after this many idle milliseconds")
	flag.Parse()

	if *root == "" || *cacheDir == "" {
		fmt.Fprintln(os.Stderr, "reflex-worker: --root and --cache-dir are required")
		os.Exit(2)
	}
	if *statusDir == "" {
		*statusDir = *cacheDir
	}

	w := &symbolcache.Worker{
		Root:         *root,
		CacheDir:     *cacheDir,
		StatusDir:    *statusDir,
		BranchKey:    *branchKey,
		PollInterval: time.Duration(*pollSeconds) * time.Second,
		IdleTimeout:  time.Duration(*idleTimeoutMs) * time.Millisecond,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "reflex-worker: %v\n", err)
		os.Exit(1)
	}
}
