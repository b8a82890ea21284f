package middleware

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/phrazzld/huddle-api/internal/api/shared"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
)

// RequestIDHeader is accepted from upstream proxies and echoed on responses.
const RequestIDHeader = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// TraceMiddleware adds a trace ID to the request context and its logger.
// A well-formed X-Request-ID from upstream is reused.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(RequestIDHeader); validRequestID.MatchString(id) {
			ctx = shared.WithTraceID(ctx, id)
		} else {
			ctx = shared.SetTraceID(ctx)
		}

		w.Header().Set(RequestIDHeader, shared.GetTraceID(ctx))

		logger.FromContext(ctx).Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
