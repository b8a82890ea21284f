package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/huddle-api/internal/config"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/events"
	"github.com/phrazzld/huddle-api/internal/platform/metrics"
	"github.com/phrazzld/huddle-api/internal/platform/postgres"
	"github.com/phrazzld/huddle-api/internal/platform/redisbus"
	"github.com/phrazzld/huddle-api/internal/service"
	"github.com/phrazzld/huddle-api/internal/service/auth"
	"github.com/phrazzld/huddle-api/internal/service/cycle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	registry *prometheus.Registry

	// Event delivery: the orchestrator emits into dispatcher, which hands
	// events to emitter's handlers off the request path.
	emitter    *events.InMemoryEventEmitter
	dispatcher *events.Dispatcher

	cycles      cycle.Service
	memberships service.MembershipService

	tokenValidator auth.TokenValidator
	adminVerifier  auth.AdminKeyVerifier
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	var err error
	app.tokenValidator, err = auth.NewTokenValidator(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token validator: %w", err)
	}
	app.adminVerifier, err = auth.NewBcryptAdminKeyVerifier(cfg.Auth.AdminKeyHash)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize admin key verifier: %w", err)
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cycleMetrics := metrics.NewCycleMetrics(app.registry)

	params, err := cfg.Matching.Params()
	if err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.HandlerFunc(func(ctx context.Context, e *events.GroupFormedEvent) error {
		logger.Debug("group formed",
			slog.String("group_id", e.GroupID.String()),
			slog.String("cycle_date", e.CycleDate.String()),
			slog.Int("members", len(e.MemberIDs)))
		return nil
	}))

	if cfg.Redis.Enabled {
		app.redis, err = redisbus.NewClient(ctx, redisbus.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.emitter.RegisterHandler(redisbus.NewPublisher(app.redis, cfg.Redis.Stream, logger))
		logger.Info("group notifications enabled", slog.String("stream", cfg.Redis.Stream))
	}

	app.dispatcher = events.NewDispatcher(app.emitter, events.DefaultDispatcherConfig(), logger)
	app.dispatcher.Start()

	roster := postgres.NewPostgresRosterStore(db, logger)
	matches := postgres.NewPostgresMatchStore(db, logger)
	groups := postgres.NewPostgresGroupStore(db, logger)

	app.cycles, err = cycle.NewBatchOrchestrator(
		roster,
		matches,
		app.dispatcher,
		params,
		logger,
		cycle.WithRecorder(cycleMetrics),
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create batch orchestrator: %w", err)
	}

	app.memberships, err = service.NewMembershipService(db, groups, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create membership service: %w", err)
	}

	logger.Info("application initialized",
		slog.String("algorithm_version", params.AlgorithmVersion))
	return app, nil
}

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runCycleOnce runs a single cycle, for cron-style invocations.
func (app *application) runCycleOnce(ctx context.Context, date string) error {
	var (
		summary *cycle.BatchSummary
		err     error
	)
	if date == "" {
		summary, err = app.cycles.RunCurrentCycle(ctx)
	} else {
		summary, err = app.cycles.RunCycle(ctx, domain.CycleDate(date))
	}
	if err != nil {
		return fmt.Errorf("matching cycle failed: %w", err)
	}

	app.logger.Info("matching cycle finished",
		slog.String("cycle_date", summary.CycleDate.String()),
		slog.String("batch_id", summary.BatchID.String()),
		slog.Int("groups_created", summary.GroupsCreated),
		slog.Int("users_matched", summary.UsersMatched),
		slog.Int("leftover", summary.LeftoverCount))
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := app.dispatcher.Stop(ctx); err != nil {
			app.logger.Warn("event dispatcher did not drain", slog.String("error", err.Error()))
		}
		cancel()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
