package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
)

// ContextKey is the type of request context keys set by the API layer.
type ContextKey string

const (
	// MemberIDContextKey holds the authenticated member's uuid.UUID.
	MemberIDContextKey ContextKey = "memberID"

	// TraceIDKey holds the request trace ID.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes in a trace ID.
	TraceIDLength = 16
)

// SetTraceID adds a new trace ID to ctx and attaches it to the context
// logger as request_id.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, generateTraceID())
}

// WithTraceID stores an existing trace ID, e.g. one propagated by a proxy.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	return logger.WithRequestID(ctx, traceID)
}

// GetTraceID retrieves the trace ID from the context, or "".
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithMemberID stores the authenticated member in ctx.
func WithMemberID(ctx context.Context, memberID uuid.UUID) context.Context {
	return context.WithValue(ctx, MemberIDContextKey, memberID)
}

// GetMemberID returns the authenticated member. The second result is false
// when no member is set.
func GetMemberID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(MemberIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// generateTraceID returns 32 hex characters. A random UUID is used if the
// system random source fails.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		id := uuid.New()
		return hex.EncodeToString(id[:])
	}
	return hex.EncodeToString(b)
}
