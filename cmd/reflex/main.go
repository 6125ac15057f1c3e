// Command reflex is the minimal CLI client named in spec §6: every
// subcommand calls straight into an operation-surface method and dumps its
// JSON response envelope verbatim to stdout. There is no human-readable
// formatting, no TUI, and no agent-tool protocol — those are explicitly out
// of scope. Grounded on cmd/lci/main.go's urfave/cli/v2 App assembly,
// trimmed from a dozen search-ergonomics flags down to the operation
// surface's own parameters.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/query"
	"github.com/reflexsearch/reflex/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "reflex",
		Usage:   "local-first trigram/symbol/AST code search",
		Version: version.Info(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file path", Value: ".reflex.kdl"},
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "workspace root (overrides config)"},
		},
		Commands: []*cli.Command{
			initCommand,
			indexCommand,
			queryCommand,
			astQueryCommand,
			statsCommand,
			listFilesCommand,
			clearCommand,
			depsCommand,
			analyzeCommand,
			watchCommand,
			serveCommand,
			workerCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "reflex: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file (<root>/.reflex.kdl when --root is given
// and --config is left at its default), lets --root override Project.Root,
// then resolves Project.Root to an absolute
// path so every downstream path (cache dir, walker root) is unambiguous.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	root := c.String("root")
	if root != "" && configPath == ".reflex.kdl" {
		configPath = filepath.Join(root, ".reflex.kdl")
	}

	cfg, err := config.LoadWithRoot(configPath, root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if root != "" {
		cfg.Project.Root = root
	}
	abs, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	cfg.Project.Root = abs
	return cfg, nil
}

// cacheDirFor resolves the single workspace-local cache directory spec §3
// describes: trigram/content blobs, metadata store, and the background
// worker's status/lock files all live here. cfg.Worker.StatusDir doubles
// as the cache directory name so there is exactly one directory to create,
// lock, and tear down.
func cacheDirFor(cfg *config.Config) string {
	dir := cfg.Worker.StatusDir
	if dir == "" {
		dir = ".reflex"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.Project.Root, dir)
	}
	return dir
}

func queryTimeout(cfg *config.Config) time.Duration {
	if cfg.Search.QueryTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(cfg.Search.QueryTimeoutMs) * time.Millisecond
}

func openEngine(cfg *config.Config) (*query.Engine, error) {
	eng, err := query.Open(cacheDirFor(cfg), cfg.Project.BranchKey, queryTimeout(cfg), cfg.Search.MaxResults, cfg.Search.EnableSuggestions)
	if err != nil {
		return nil, fmt.Errorf("open query engine (run `reflex index` first?): %w", err)
	}
	return eng, nil
}

// emit writes v to stdout as a single JSON document, matching spec §6's
// "dump the response envelope verbatim" contract.
func emit(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var initCommand = &cli.Command{
	Name:  "init",
	Usage: "create the cache directory for a workspace",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		dir := cacheDirFor(cfg)
		if err := indexer.EnsureCacheDir(dir); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		return emit(map[string]string{"status": "ok", "cache_dir": dir, "root": cfg.Project.Root})
	},
}

var clearCommand = &cli.Command{
	Name:  "clear",
	Usage: "remove the cache directory",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		dir := cacheDirFor(cfg)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		return emit(map[string]string{"status": "ok", "cache_dir": dir})
	},
}

var errUsage = errors.New("missing required argument")
