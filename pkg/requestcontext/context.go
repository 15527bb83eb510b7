// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware (or tests) and consumed by services. Keeping
// this package free of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	lederFnr := requestcontext.LederFnr(ctx)
package requestcontext

import (
	"context"
)

type (
	lederFnrKey  struct{}
	requestIDKey struct{}
)

// LederFnr retrieves the authenticated manager's national ID from the context.
// Returns "" if not set.
func LederFnr(ctx context.Context) string {
	if fnr, ok := ctx.Value(lederFnrKey{}).(string); ok {
		return fnr
	}
	return ""
}

// WithLederFnr injects the authenticated manager's national ID.
func WithLederFnr(ctx context.Context, fnr string) context.Context {
	return context.WithValue(ctx, lederFnrKey{}, fnr)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
