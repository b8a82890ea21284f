package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrWrongTokenType indicates a refresh or other non-access token was presented
	ErrWrongTokenType = errors.New("wrong authentication token type")

	// ErrInvalidAdminKey indicates the admin key does not match the configured hash
	ErrInvalidAdminKey = errors.New("invalid admin key")

	// ErrAdminDisabled indicates no admin key hash is configured
	ErrAdminDisabled = errors.New("admin access is disabled")
)
