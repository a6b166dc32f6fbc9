package oauth

import (
	"context"

	"go.uber.org/zap"
)

// Flow is one concrete protocol for exchanging proof of authorization for a
// Token at the client's token endpoint. Each variant owns its parameter
// validation: Execute returns a *ConfigError before touching the network
// when a required input is missing.
//
// Implementations must not leak the client secret or any token material in
// returned errors or log output.
type Flow interface {
	// Kind returns the grant name, e.g. "authorization_code" or "device".
	Kind() string

	// Execute runs the exchange against the client's endpoints. It respects
	// ctx cancellation at every suspension point (callback waits, poll
	// sleeps, network calls) and never produces a partial token.
	Execute(ctx context.Context, client *Client) (*Token, error)
}

// flowLogger returns a named, correlation-aware logger for a flow run.
// Passing a nil base falls back to the process logger.
func flowLogger(ctx context.Context, base *zap.Logger, kind string) *zap.Logger {
	if base == nil {
		base = zap.L()
	}
	return CorrelationLogger(ctx, base.Named("oauth-flow").With(zap.String("flow", kind)))
}
