package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reflexsearch/reflex/internal/rlog"
)

// watchSkipDirs are directory names never worth an fsnotify watch even
// before walker's gitignore/exclude rules run against individual files —
// kept small since unwatched subtrees of these are simply never reported,
// while Run's own walker.Walk still governs what actually gets indexed.
var watchSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"dist": true, "build": true, "out": true, "target": true,
}

// Event is one `watch(debounce)` notification: the IndexStats of a
// debounced re-run, or an error if the run failed.
type Event struct {
	Stats IndexStats `json:"stats"`
	Error string     `json:"error,omitempty"`
}

// Watcher drives spec §6's watch(debounce) operation: an fsnotify
// recursive directory watch feeding a debounced rebuild, grounded on
// internal/indexing/watcher.go's FileWatcher (directory-add loop, event
// dispatch) and internal/indexing/debounced_rebuilder.go's timer-reset
// idiom, collapsed from per-file rebuild scheduling to "fire one full
// Indexer.Run after the debounce window goes quiet" since Run already
// re-hashes every file to find what changed.
type Watcher struct {
	ix       *Indexer
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher builds a Watcher over ix, adding a recursive watch on every
// directory under ix.Root. debounce <= 0 falls back to 300ms, matching the
// teacher's WatchDebounceMs default.
func NewWatcher(ix *Indexer, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{ix: ix, debounce: debounce, fsw: fsw}
	if err := w.addDirs(ix.Root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip it, don't abort the whole watch
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != filepath.Base(root) && watchSkipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			rlog.LogIndexing("watch: failed to add %s: %v", path, err)
		}
		return nil
	})
}

// Run starts the event loop and returns a channel of Events. The channel
// is closed when ctx is cancelled or the underlying watch fails
// irrecoverably. Every debounced batch of fsnotify events triggers exactly
// one Indexer.Run, whose IndexStats is forwarded as the Event.
func (w *Watcher) Run(ctx context.Context) <-chan Event {
	events := make(chan Event, 1)

	go func() {
		defer close(events)
		defer w.fsw.Close()

		fire := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				w.mu.Lock()
				if w.timer != nil {
					w.timer.Stop()
				}
				w.mu.Unlock()
				return

			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						w.addDirs(ev.Name)
					}
				}
				w.scheduleFire(fire)

			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				rlog.LogIndexing("watch: fsnotify error: %v", err)

			case <-fire:
				stats, err := w.ix.Run(ctx)
				ev := Event{Stats: stats}
				if err != nil {
					ev.Error = err.Error()
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}

func (w *Watcher) scheduleFire(fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}
