package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/api/shared"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/redact"
	"github.com/phrazzld/huddle-api/internal/service/auth"
)

// AuthMiddleware provides JWT authentication for member routes.
type AuthMiddleware struct {
	validator auth.TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(validator auth.TokenValidator) *AuthMiddleware {
	if validator == nil {
		panic("validator cannot be nil")
	}
	return &AuthMiddleware{validator: validator}
}

// Authenticate validates the Bearer token in the Authorization header and
// adds the member ID to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrWrongTokenType),
				errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContext(r.Context()).Error("failed to validate token",
					slog.String("error", redact.Error(err)))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := shared.WithMemberID(r.Context(), claims.MemberID)
		ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(
			slog.String("member_id", claims.MemberID.String())))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetMemberID extracts the authenticated member ID from the request context.
func GetMemberID(r *http.Request) (uuid.UUID, bool) {
	return shared.GetMemberID(r.Context())
}
