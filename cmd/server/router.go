package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/huddle-api/internal/api"
	apiMiddleware "github.com/phrazzld/huddle-api/internal/api/middleware"
	"github.com/phrazzld/huddle-api/internal/api/shared"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(middleware.Recoverer)

	cycleHandler := api.NewCycleHandler(app.cycles, app.logger)
	groupHandler := api.NewGroupHandler(app.memberships, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenValidator)
	adminMiddleware := apiMiddleware.NewAdminMiddleware(app.adminVerifier)

	r.Route("/api", func(r chi.Router) {
		// Operator endpoints
		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware.RequireAdminKey)
			r.Post("/admin/cycles", cycleHandler.RunCycle)
			r.Get("/admin/cycles/{cycle}", cycleHandler.GetCycle)
		})

		// Member endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/groups", groupHandler.ListGroups)
			r.Post("/groups/{id}/join", groupHandler.JoinGroup)
			r.Post("/groups/{id}/pass", groupHandler.PassGroup)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Get("/ready", app.readiness)
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}

// readiness reports whether the database and, when enabled, Redis respond.
func (app *application) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Redis unavailable", err)
			return
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
