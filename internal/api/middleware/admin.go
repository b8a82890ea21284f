package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/huddle-api/internal/api/shared"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/service/auth"
)

// AdminKeyHeader carries the operator key on admin routes.
const AdminKeyHeader = "X-Admin-Key"

// AdminMiddleware guards operator routes such as the cycle trigger.
type AdminMiddleware struct {
	verifier auth.AdminKeyVerifier
}

// NewAdminMiddleware creates an AdminMiddleware.
func NewAdminMiddleware(verifier auth.AdminKeyVerifier) *AdminMiddleware {
	if verifier == nil {
		panic("verifier cannot be nil")
	}
	return &AdminMiddleware{verifier: verifier}
}

// RequireAdminKey rejects requests whose X-Admin-Key does not verify.
// Admin routes answer 404 when no key is configured.
func (m *AdminMiddleware) RequireAdminKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := m.verifier.Verify(r.Header.Get(AdminKeyHeader))
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, auth.ErrAdminDisabled):
			shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
		case errors.Is(err, auth.ErrInvalidAdminKey):
			logger.FromContext(r.Context()).Warn("rejected admin request",
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid admin key")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
		}
	})
}
