package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/service"
	"github.com/phrazzld/huddle-api/internal/service/auth"
	"github.com/phrazzld/huddle-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{
			name:     "duplicate cycle",
			err:      domain.NewConflictError("run_cycle", "cycle already matched", store.ErrBatchExists),
			status:   http.StatusConflict,
			contains: "already been matched",
		},
		{
			name: "invalid cycle date",
			err: domain.NewConfigurationError("run_cycle", "invalid cycle date",
				fmt.Errorf("%w: 2024-W60", domain.ErrInvalidCycleDate)),
			status:   http.StatusBadRequest,
			contains: "Invalid cycle date",
		},
		{
			name:     "bad parameters",
			err:      domain.NewConfigurationError("new_orchestrator", "weights", nil),
			status:   http.StatusBadRequest,
			contains: "configuration",
		},
		{
			name: "rolled back batch",
			err: domain.NewTransactionalError("run_cycle", "commit failed",
				fmt.Errorf("member lookup: %w", store.ErrMemberNotFound)),
			status:   http.StatusInternalServerError,
			contains: "Failed to run matching cycle",
		},
		{
			name:     "batch lookup",
			err:      fmt.Errorf("failed to get batch for 2024-W10: %w", store.ErrBatchNotFound),
			status:   http.StatusNotFound,
			contains: "not been matched",
		},
		{
			name:     "unparseable cycle on lookup",
			err:      fmt.Errorf("%w: tuesday", domain.ErrInvalidCycleDate),
			status:   http.StatusBadRequest,
			contains: "Invalid cycle date",
		},
		{
			name:     "group not found",
			err:      store.ErrGroupNotFound,
			status:   http.StatusNotFound,
			contains: "Group not found",
		},
		{
			name:     "not a member",
			err:      service.NewMembershipServiceError("join", "not a member", service.ErrNotGroupMember),
			status:   http.StatusNotFound,
			contains: "Group not found",
		},
		{
			name:     "archived group",
			err:      service.ErrGroupArchived,
			status:   http.StatusConflict,
			contains: "archived",
		},
		{
			name:     "passed membership",
			err:      service.ErrMembershipInactive,
			status:   http.StatusConflict,
			contains: "already passed",
		},
		{
			name:     "expired token",
			err:      auth.ErrExpiredToken,
			status:   http.StatusUnauthorized,
			contains: "Invalid token",
		},
		{
			name:     "unknown",
			err:      errors.New("connection reset by peer"),
			status:   http.StatusInternalServerError,
			contains: "unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.status, MapErrorToStatusCode(tt.err))
			assert.Contains(t, GetSafeErrorMessage(tt.err), tt.contains)
		})
	}
}

func TestGetSafeErrorMessage_DoesNotLeak(t *testing.T) {
	t.Parallel()

	err := domain.NewTransactionalError("run_cycle", "insert group",
		errors.New(`pq: duplicate key value violates unique constraint "group_memberships_pkey"`))

	msg := GetSafeErrorMessage(err)
	assert.NotContains(t, msg, "constraint")
	assert.NotContains(t, msg, "group_memberships")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := validator.New().Struct(&RunCycleRequest{CycleDate: "2024-03-04-extra"})
	require.Error(t, err)

	assert.Equal(t, "Invalid CycleDate: too long", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
