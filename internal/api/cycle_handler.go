package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/huddle-api/internal/api/shared"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/service/cycle"
	"github.com/phrazzld/huddle-api/internal/store"
)

// CycleHandler exposes the matching trigger to operators.
type CycleHandler struct {
	cycles cycle.Service
	logger *slog.Logger
}

// NewCycleHandler creates a new CycleHandler.
func NewCycleHandler(cycles cycle.Service, logger *slog.Logger) *CycleHandler {
	if cycles == nil {
		panic("cycle service cannot be nil for CycleHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CycleHandler{
		cycles: cycles,
		logger: logger.With(slog.String("component", "cycle_handler")),
	}
}

// RunCycle handles POST /api/admin/cycles.
// It runs the requested cycle (or the current one) and returns 201 with the
// batch summary, or 409 if the cycle was already matched.
func (h *CycleHandler) RunCycle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RunCycleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	var (
		summary *cycle.BatchSummary
		err     error
	)
	if req.CycleDate == "" {
		log.Info("running current cycle")
		summary, err = h.cycles.RunCurrentCycle(r.Context())
	} else {
		log.Info("running cycle", slog.String("cycle_date", req.CycleDate))
		summary, err = h.cycles.RunCycle(r.Context(), domain.CycleDate(req.CycleDate))
	}
	if err != nil {
		var opts []shared.ResponseOption
		if domain.KindOf(err) == domain.KindConflict {
			opts = append(opts, shared.WithElevatedLogLevel())
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err, opts...)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, summaryToResponse(summary))
}

// GetCycle handles GET /api/admin/cycles/{cycle}.
func (h *CycleHandler) GetCycle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	raw := chi.URLParam(r, "cycle")
	batch, err := h.cycles.GetBatch(r.Context(), domain.CycleDate(raw))
	if err != nil {
		if errors.Is(err, store.ErrBatchNotFound) {
			log.Debug("cycle not matched yet", slog.String("cycle_date", raw))
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, batchToResponse(batch))
}
