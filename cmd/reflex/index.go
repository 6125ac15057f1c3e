package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/metrics"
)

var indexCommand = &cli.Command{
	Name:  "index",
	Usage: "run one full index generation (index(options) -> IndexStats)",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		dir := cacheDirFor(cfg)
		if err := indexer.EnsureCacheDir(dir); err != nil {
			return fmt.Errorf("index: %w", err)
		}

		store, err := metadata.Open(filepath.Join(dir, indexer.MetadataFileName))
		if err != nil {
			return fmt.Errorf("index: open metadata store: %w", err)
		}
		defer store.Close()

		stats, err := indexer.New(cfg.Project.Root, dir, cfg, store).Run(context.Background())
		if err != nil {
			return fmt.Errorf("index: %w", err)
		}
		return emit(stats)
	},
}

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "aggregate counters for the current index (stats() -> Stats)",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "detailed", Usage: "also report per-language, per-symbol-kind, and dependency-graph breakdowns"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		store, err := metadata.Open(filepath.Join(cacheDirFor(cfg), indexer.MetadataFileName))
		if err != nil {
			return fmt.Errorf("stats: open metadata store (run `reflex index` first?): %w", err)
		}
		defer store.Close()

		if c.Bool("detailed") {
			detailed, err := metrics.Compute(store)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			return emit(detailed)
		}

		st, err := store.Statistics()
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		return emit(st)
	},
}

var listFilesCommand = &cli.Command{
	Name:  "list-files",
	Usage: "list every indexed file path (list_files() -> Vec<FilePath>)",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		store, err := metadata.Open(filepath.Join(cacheDirFor(cfg), indexer.MetadataFileName))
		if err != nil {
			return fmt.Errorf("list-files: open metadata store (run `reflex index` first?): %w", err)
		}
		defer store.Close()

		paths, err := store.ListFiles()
		if err != nil {
			return fmt.Errorf("list-files: %w", err)
		}
		return emit(paths)
	},
}
