package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/reflexsearch/reflex/internal/rpc"
)

// serveCommand runs internal/rpc's line-delimited JSON pass-through over
// stdin/stdout, per spec §6's note that a "serve" mode mirrors the
// operation surface without a real HTTP server or tool registry.
var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "line-delimited JSON request/response loop over stdin/stdout",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := rpc.Serve(ctx, eng, os.Stdin, os.Stdout); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}
