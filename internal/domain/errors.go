// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidCycleDate is returned when a cycle date is not an ISO week.
	ErrInvalidCycleDate = errors.New("invalid cycle date")

	// ErrInvalidGroupStatus is returned when a group status is unknown or a
	// transition between two statuses is not allowed.
	ErrInvalidGroupStatus = errors.New("invalid group status")

	// ErrDuplicateBatch is returned when a batch already exists for a cycle date.
	ErrDuplicateBatch = errors.New("batch already exists for cycle date")

	// ErrInvalidConfiguration is returned when matching parameters are unusable.
	ErrInvalidConfiguration = errors.New("invalid matching configuration")

	// ErrBatchFailed is returned when a batch could not be committed.
	ErrBatchFailed = errors.New("batch failed")
)

// ErrorKind classifies matching failures by how they propagate.
type ErrorKind string

// Matching error kinds.
const (
	// KindAdvisory errors are logged and skipped; they never reach callers.
	KindAdvisory ErrorKind = "advisory"
	// KindConfiguration errors reject a cycle before any work starts.
	KindConfiguration ErrorKind = "configuration"
	// KindConflict errors reject a cycle without side effects.
	KindConflict ErrorKind = "conflict"
	// KindTransactional errors are returned after the commit was rolled back.
	KindTransactional ErrorKind = "transactional"
)

// MatchError is the single error type produced by the matching engine.
// Kind tells the caller whether a retry makes sense; Err carries the cause.
type MatchError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface for MatchError.
func (e *MatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *MatchError) Unwrap() error {
	return e.Err
}

// NewConfigurationError wraps err as a configuration failure.
func NewConfigurationError(op, message string, err error) *MatchError {
	if err == nil {
		err = ErrInvalidConfiguration
	}
	return &MatchError{Kind: KindConfiguration, Op: op, Message: message, Err: err}
}

// NewConflictError reports a duplicate batch for the given operation.
func NewConflictError(op, message string, err error) *MatchError {
	if err == nil {
		err = ErrDuplicateBatch
	}
	return &MatchError{Kind: KindConflict, Op: op, Message: message, Err: err}
}

// NewTransactionalError wraps a persistence failure that was rolled back.
// The result matches both ErrBatchFailed and the underlying cause.
func NewTransactionalError(op, message string, err error) *MatchError {
	return &MatchError{
		Kind:    KindTransactional,
		Op:      op,
		Message: message,
		Err:     errors.Join(ErrBatchFailed, err),
	}
}

// NewAdvisoryError describes a skipped input; it is recorded, never returned.
func NewAdvisoryError(op, message string) *MatchError {
	return &MatchError{Kind: KindAdvisory, Op: op, Message: message, Err: ErrValidation}
}

// KindOf returns the ErrorKind of err, or the empty kind when err is not a
// MatchError.
func KindOf(err error) ErrorKind {
	var me *MatchError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}
