package goSession

import (
	"context"

	"github.com/Unicash-organization/goSession/internal/reqctx"
)

// WithRequestID attaches a correlation id to ctx. The engine forwards it to
// the Account Service as X-Request-ID and stamps it on audit events. When
// absent, one is generated per operation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return reqctx.WithRequestID(ctx, id)
}

// RequestIDFromContext returns the correlation id carried by ctx.
func RequestIDFromContext(ctx context.Context) string {
	return reqctx.RequestID(ctx)
}
