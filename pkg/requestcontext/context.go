// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// The controller layer that fronts this engine sets these values in its
// middleware; services only ever read them. Keeping the package free of
// net/http lets the engine stay a plain library.
//
// Usage in services (read values):
//
//	candidateID := requestcontext.CandidateID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "veriform/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	candidateIDKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyCandidateID = candidateIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// CandidateID retrieves the candidate ID from the context.
// Returns the zero value (nil UUID) if not set.
func CandidateID(ctx context.Context) id.CandidateID {
	if candidateID, ok := ctx.Value(ContextKeyCandidateID).(id.CandidateID); ok {
		return candidateID
	}
	return id.CandidateID{}
}

// WithCandidateID injects a candidate ID into the context.
func WithCandidateID(ctx context.Context, candidateID id.CandidateID) context.Context {
	return context.WithValue(ctx, ContextKeyCandidateID, candidateID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers,
// CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
