package oauth

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// correlationIDKey is the context key carrying the flow correlation ID.
const correlationIDKey contextKey = "oauth_correlation_id"

// NewCorrelationID generates a unique correlation ID for one flow execution.
// Every log line emitted during that execution carries it, which is the only
// practical way to untangle interleaved flows for different clients.
func NewCorrelationID() string {
	return uuid.New().String()
}

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// GetCorrelationID retrieves the correlation ID from the context, or ""
// if none is present.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// CorrelationLogger returns the logger with a correlation_id field when the
// context carries one, and the logger unchanged otherwise.
func CorrelationLogger(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := GetCorrelationID(ctx); id != "" {
		return logger.With(zap.String("correlation_id", id))
	}
	return logger
}

// ensureCorrelation returns a context guaranteed to carry a correlation ID,
// minting one when absent.
func ensureCorrelation(ctx context.Context) context.Context {
	if GetCorrelationID(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, NewCorrelationID())
}
