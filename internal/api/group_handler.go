package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/api/shared"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/service"
)

// GroupHandler serves the member-facing group endpoints.
type GroupHandler struct {
	memberships service.MembershipService
	logger      *slog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(memberships service.MembershipService, logger *slog.Logger) *GroupHandler {
	if memberships == nil {
		panic("membership service cannot be nil for GroupHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GroupHandler{
		memberships: memberships,
		logger:      logger.With(slog.String("component", "group_handler")),
	}
}

// ListGroups handles GET /api/groups.
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	memberID, ok := shared.GetMemberID(r.Context())
	if !ok {
		log.Warn("member ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Member ID not found or invalid")
		return
	}

	groups, err := h.memberships.ListMemberGroups(r.Context(), memberID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GroupListResponse{Groups: groupsToResponse(groups)})
}

// JoinGroup handles POST /api/groups/{id}/join.
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "join", h.memberships.Join)
}

// PassGroup handles POST /api/groups/{id}/pass.
func (h *GroupHandler) PassGroup(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "pass", h.memberships.Pass)
}

// respond runs a membership transition for the caller on the {id} group.
func (h *GroupHandler) respond(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	do func(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error),
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	memberID, groupID, ok := handleMemberIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	group, err := do(r.Context(), groupID, memberID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("membership updated",
		slog.String("action", action),
		slog.String("group_id", groupID.String()),
		slog.String("status", string(group.Status)))
	shared.RespondWithJSON(w, r, http.StatusOK, groupToResponse(group))
}
