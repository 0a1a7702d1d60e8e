package logger

import (
	"context"

	"github.com/google/uuid"
)

type key int

const correlationKey key = 0

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// EnsureCorrelationID attaches a fresh ID unless the context already has one.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if CorrelationID(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, uuid.New().String())
}

// CorrelationID extracts the correlation ID, or "" if none is set.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return ""
}
