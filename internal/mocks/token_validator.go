package mocks

import (
	"context"

	"github.com/phrazzld/huddle-api/internal/service/auth"
)

// MockTokenValidator is a configurable auth.TokenValidator.
type MockTokenValidator struct {
	// ValidateTokenFn overrides the fixed Claims/ValidateErr results when set.
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)

	Claims      *auth.Claims
	ValidateErr error

	// LastToken is the most recent token passed to ValidateToken.
	LastToken string
}

var _ auth.TokenValidator = (*MockTokenValidator)(nil)

// ValidateToken implements auth.TokenValidator.
func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	m.LastToken = token
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	return m.Claims, nil
}
