// Package main is the librarian command. It wires the configured store
// backend and runs one of a few maintenance and demonstration commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/librarian/internal/app"
	"github.com/phrazzld/librarian/internal/config"
	"github.com/phrazzld/librarian/internal/platform/logger"
	"github.com/phrazzld/librarian/internal/platform/postgres"
	"github.com/phrazzld/librarian/internal/redact"
)

const usage = `usage: librarian <command> [args]

commands:
  demo              seed a library and run a checkout cycle
  dump              print every stored record as JSON
  health            ping the configured backend
  migrate <cmd>     run a postgres migration command (up, down, reset, status, version)
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "librarian: %s\n", redact.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("librarian", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: no command given", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.SetupWithWriter(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	command, rest := fs.Arg(0), fs.Args()[1:]
	if command == "migrate" {
		return runMigrate(ctx, cfg, rest, log)
	}

	a, err := app.New(ctx, cfg, app.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to close application", slog.String("error", redact.Error(err)))
		}
	}()

	switch command {
	case "demo":
		if err := runDemo(ctx, a, stdout); err != nil {
			return err
		}
	case "dump":
		data, err := a.Dump(ctx)
		if err != nil {
			return fmt.Errorf("dump failed: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
	case "health":
		if err := a.Health(ctx); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintf(stdout, "ok %s\n", cfg.Store.Backend)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	if cfg.Store.Backend == config.BackendMemory && cfg.Store.SnapshotPath != "" {
		if err := a.SaveSnapshots(ctx); err != nil {
			return fmt.Errorf("failed to save snapshots: %w", err)
		}
	}
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config, args []string, log *slog.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: migrate takes exactly one command", errUsage)
	}
	if cfg.Database.URL == "" {
		return errors.New("database.url is not configured")
	}

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", redact.Error(err)))
		}
	}()

	return postgres.Migrate(ctx, db, args[0], log)
}
