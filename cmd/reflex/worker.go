package main

import (
	"fmt"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/symbolcache"
)

// workerCommand groups start_background_symbol_indexer()/status()/cancel()
// under one parent, matching spec §6's "worker start|status|cancel" naming.
var workerCommand = &cli.Command{
	Name:  "worker",
	Usage: "control the background symbol cache worker",
	Subcommands: []*cli.Command{
		{
			Name:  "start",
			Usage: "start_background_symbol_indexer()",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				dir := cacheDirFor(cfg)
				if err := indexer.SpawnWorker(cfg.Project.Root, dir, dir); err != nil {
					return fmt.Errorf("worker start: %w", err)
				}
				return emit(map[string]string{"status": "started"})
			},
		},
		{
			Name:  "status",
			Usage: "status()",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				st, err := symbolcache.ReadStatus(cacheDirFor(cfg))
				if err != nil {
					return fmt.Errorf("worker status: %w", err)
				}
				return emit(st)
			},
		},
		{
			Name:  "cancel",
			Usage: "cancel()",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				st, err := symbolcache.ReadStatus(cacheDirFor(cfg))
				if err != nil {
					return fmt.Errorf("worker cancel: %w", err)
				}
				if st.PID == 0 {
					return emit(map[string]string{"status": "not_running"})
				}
				if err := syscall.Kill(st.PID, syscall.SIGTERM); err != nil {
					return fmt.Errorf("worker cancel: signal pid %d: %w", st.PID, err)
				}
				return emit(map[string]string{"status": "cancelled", "pid": fmt.Sprint(st.PID)})
			},
		},
	},
}
