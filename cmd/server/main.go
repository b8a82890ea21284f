// Package main implements the entry point for the Huddle API server, which
// runs the weekly group-matching cycle and serves the member group endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/huddle-api/internal/config"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
)

// cliFlags holds the parsed command-line flags.
type cliFlags struct {
	configDir string
	migrate   string
	runCycle  bool
	cycle     string
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&f.configDir, "config-dir", ".", "directory containing config.yaml and .env")
	fs.StringVar(&f.migrate, "migrate", "", "run a migration command (up, down, status, version) and exit")
	fs.BoolVar(&f.runCycle, "run-cycle", false, "run one matching cycle and exit")
	fs.StringVar(&f.cycle, "cycle", "", "cycle to run with -run-cycle (2024-W10 or 2024-03-04); defaults to the current week")

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.cycle != "" && !f.runCycle {
		return f, fmt.Errorf("-cycle requires -run-cycle")
	}
	if f.migrate != "" && f.runCycle {
		return f, fmt.Errorf("-migrate and -run-cycle are mutually exclusive")
	}
	return f, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("huddle-api exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(flags.configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server.Logger())
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("redis_enabled", cfg.Redis.Enabled),
		slog.Bool("admin_enabled", cfg.Auth.AdminKeyHash != ""))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	if flags.migrate != "" {
		defer func() { _ = db.Close() }()
		return runMigrations(ctx, db, flags.migrate, log)
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if flags.runCycle {
		defer app.cleanup()
		return app.runCycleOnce(ctx, flags.cycle)
	}

	return app.Run(ctx)
}
