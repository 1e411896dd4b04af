// Command respd is the process entry point (§10.4): it parses the CLI
// surface, builds the logger, store, and command dispatcher, and runs the
// connection driver until a shutdown signal arrives.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/manh119/respd/internal/command"
	"github.com/manh119/respd/internal/config"
	"github.com/manh119/respd/internal/logging"
	"github.com/manh119/respd/internal/server"
	"github.com/manh119/respd/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "respd",
		Usage: "a RESP-compatible in-memory cache server",
		Flags: config.Flags(),
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "respd:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.New(cfg.Verbosity)
	log.Info("starting respd", "addr", cfg.Addr(), "shards", cfg.Shards, "capacity", cfg.Capacity, "limit", cfg.ConnLimit)

	st := store.New(store.Options{
		Shards:   cfg.Shards,
		Capacity: cfg.Capacity,
		Logger:   log,
	})
	dispatcher := command.New(st, log)

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", cfg.Addr(), err)
	}

	srv := server.New(listener, dispatcher, server.Options{
		BufferSize: cfg.Buffer,
		ConnLimit:  cfg.ConnLimit,
		Logger:     log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Serve(ctx)
	if err != nil {
		log.Error("server exited with error", "error", err)
		return err
	}
	log.Info("respd shut down cleanly")
	return nil
}
