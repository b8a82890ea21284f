package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/service"
	"github.com/phrazzld/huddle-api/internal/service/auth"
	"github.com/phrazzld/huddle-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	// Matching engine failures carry their own classification.
	switch domain.KindOf(err) {
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindConfiguration:
		return http.StatusBadRequest
	case domain.KindTransactional:
		return http.StatusInternalServerError
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Not found errors; non-members get the same answer as a missing group
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrNotGroupMember):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrGroupArchived),
		errors.Is(err, service.ErrMembershipInactive),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidCycleDate),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch domain.KindOf(err) {
	case domain.KindConflict:
		return "Cycle has already been matched"
	case domain.KindConfiguration:
		if errors.Is(err, domain.ErrInvalidCycleDate) {
			return "Invalid cycle date"
		}
		return "Invalid matching configuration"
	case domain.KindTransactional:
		return "Failed to run matching cycle"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, store.ErrBatchNotFound):
		return "Cycle has not been matched"

	case errors.Is(err, store.ErrGroupNotFound),
		errors.Is(err, service.ErrNotGroupMember):
		return "Group not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, service.ErrGroupArchived):
		return "Group is archived"

	case errors.Is(err, service.ErrMembershipInactive):
		return "You have already passed on this group"

	case errors.Is(err, domain.ErrInvalidCycleDate):
		return "Invalid cycle date"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example: "Key: 'RunCycleRequest.CycleDate' Error:Field validation for 'CycleDate' failed on the 'max' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
