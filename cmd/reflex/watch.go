package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/metadata"
)

// watchCommand implements watch(debounce) -> stream of index events: one
// JSON Event per line, written as each debounced rebuild completes, until
// interrupted.
var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "watch(debounce) -> stream of index events",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "debounce-ms", Value: 300},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		dir := cacheDirFor(cfg)
		if err := indexer.EnsureCacheDir(dir); err != nil {
			return fmt.Errorf("watch: %w", err)
		}

		store, err := metadata.Open(filepath.Join(dir, indexer.MetadataFileName))
		if err != nil {
			return fmt.Errorf("watch: open metadata store: %w", err)
		}
		defer store.Close()

		ix := indexer.New(cfg.Project.Root, dir, cfg, store)
		w, err := indexer.NewWatcher(ix, time.Duration(c.Int("debounce-ms"))*time.Millisecond)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		enc := json.NewEncoder(os.Stdout)
		for ev := range w.Run(ctx) {
			enc.Encode(ev)
		}
		return nil
	},
}
