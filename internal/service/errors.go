package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in MembershipServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotGroupMember indicates the member was not placed in the group.
	// API layer should map this to HTTP 404 Not Found so group ids cannot be probed.
	ErrNotGroupMember = errors.New("member does not belong to group")

	// ErrGroupArchived indicates the group no longer accepts changes.
	// API layer should map this to HTTP 409 Conflict.
	ErrGroupArchived = errors.New("group is archived")

	// ErrMembershipInactive indicates the member already passed on the group.
	// API layer should map this to HTTP 409 Conflict.
	ErrMembershipInactive = errors.New("membership is no longer active")
)

// MembershipServiceError is a custom error type for membership service errors.
type MembershipServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for MembershipServiceError.
func (e *MembershipServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("membership service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("membership service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *MembershipServiceError) Unwrap() error {
	return e.Err
}

// NewMembershipServiceError creates a new MembershipServiceError.
func NewMembershipServiceError(operation, message string, err error) *MembershipServiceError {
	return &MembershipServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
