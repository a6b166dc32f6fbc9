package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TokenStore is the cache the Authenticator reads through. Implementations
// live in internal/cache; the interface is defined here so the middleware
// depends only on the operations it needs. Get returns (nil, nil) on a miss.
type TokenStore interface {
	Get(clientName string) (*Token, error)
	Put(clientName string, token *Token) error
	Invalidate(clientName string) error
}

// Authenticator is request middleware: it attaches a token to every outgoing
// request, acquires or refreshes tokens on demand, and recovers from a 401
// exactly once per request.
//
// Concurrent requests for the same client that would each trigger an
// acquisition share a single in-flight exchange through a per-client-name
// single-flight group; unrelated clients never serialize on each other.
// Failed exchanges never write to the cache.
type Authenticator struct {
	client    *Client
	flow      Flow
	store     TokenStore
	transport http.RoundTripper
	group     singleflight.Group
	logger    *zap.Logger
}

// NewAuthenticator builds the middleware for one client. flow is the primary
// acquisition strategy; a stored refresh token is always preferred over
// re-running it. transport defaults to http.DefaultTransport.
func NewAuthenticator(client *Client, flow Flow, store TokenStore, transport http.RoundTripper, logger *zap.Logger) (*Authenticator, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, &ConfigError{Field: "flow", Reason: "required"}
	}
	if store == nil {
		return nil, &ConfigError{Field: "store", Reason: "required"}
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Authenticator{
		client:    client,
		flow:      flow,
		store:     store,
		transport: transport,
		logger:    logger.Named("authenticator").With(zap.String("client", client.Name)),
	}, nil
}

// RoundTrip implements http.RoundTripper.
func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := a.send(req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// The server rejected a token the cache considered valid: clock skew or
	// server-side revocation. Force one re-acquisition and retry once.
	if req.Body != nil && req.GetBody == nil {
		// Body already consumed and not replayable; surface the 401 as-is.
		a.logger.Warn("Received 401 but request body is not replayable")
		return resp, nil
	}
	drain(resp)

	a.logger.Info("Received 401, forcing token refresh and retrying once")
	token, err = a.reacquire(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	// Second 401, if any, is terminal and belongs to the caller.
	return a.send(req, token)
}

// Token returns a valid token for the client, acquiring one if the cache is
// empty or expired.
func (a *Authenticator) Token(ctx context.Context) (*Token, error) {
	if token := a.cached(); token != nil {
		return token, nil
	}
	return a.acquire(ctx, "")
}

// InvalidateToken drops the cached token, forcing the next request to run a
// fresh acquisition. Used on explicit logout.
func (a *Authenticator) InvalidateToken() error {
	return a.store.Invalidate(a.client.Name)
}

// reacquire forces a refresh after a 401 even though the cached token looked
// unexpired. rejected is the access token the server just refused: if a
// concurrent flight already replaced it, its result is reused instead of
// hitting the token endpoint again.
func (a *Authenticator) reacquire(ctx context.Context, rejected string) (*Token, error) {
	return a.acquire(ctx, rejected)
}

// cached returns a still-valid token from the store, degrading cache errors
// to a miss.
func (a *Authenticator) cached() *Token {
	token, err := a.store.Get(a.client.Name)
	if err != nil {
		a.logger.Warn("Token cache read failed, treating as miss", zap.Error(err))
		return nil
	}
	if token.Valid() {
		return token
	}
	return nil
}

// acquire funnels all callers into one exchange per client name. rejected,
// when non-empty, marks a cached access token as known-bad so the in-flight
// check does not hand it back.
func (a *Authenticator) acquire(ctx context.Context, rejected string) (*Token, error) {
	// The flight is shared by every waiter, so it must not inherit the
	// cancellation of whichever caller happened to start it. WithoutCancel
	// keeps the context values (correlation ID) while detaching the
	// lifetime; interactive flows bound their own waits.
	flightCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan(a.client.Name, func() (interface{}, error) {
		return a.exchange(flightCtx, rejected)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		token, ok := res.Val.(*Token)
		if !ok || token == nil {
			return nil, fmt.Errorf("acquisition produced no token")
		}
		if res.Shared {
			a.logger.Debug("Reused token from concurrent acquisition")
		}
		return token, nil
	case <-ctx.Done():
		// The exchange keeps running for the benefit of other waiters; this
		// caller just stops waiting. Nothing has been written to the cache
		// on its behalf.
		return nil, ctx.Err()
	}
}

// exchange is the single-flight body: re-check the cache (a previous flight
// may have stored a fresh token while we queued), then refresh if possible,
// falling back to the primary flow, and store the result. Only a successful
// exchange writes.
func (a *Authenticator) exchange(ctx context.Context, rejected string) (*Token, error) {
	ctx = ensureCorrelation(ctx)
	logger := CorrelationLogger(ctx, a.logger)

	stored, err := a.store.Get(a.client.Name)
	if err != nil {
		logger.Warn("Token cache read failed during acquisition", zap.Error(err))
		stored = nil
	}
	if stored.Valid() && stored.AccessToken != rejected {
		return stored, nil
	}

	token, err := a.mint(ctx, stored, logger)
	if err != nil {
		return nil, err
	}

	if err := a.store.Put(a.client.Name, token); err != nil {
		// The token is good even if persisting it is not.
		logger.Warn("Token cache write failed", zap.Error(err))
	}
	return token, nil
}

// mint runs the refresh exchange when a refresh token is on hand, falling
// back to the primary flow when the refresh token is rejected, and the
// primary flow otherwise.
func (a *Authenticator) mint(ctx context.Context, stored *Token, logger *zap.Logger) (*Token, error) {
	if stored != nil && stored.RefreshToken != "" {
		refresh := &RefreshFlow{
			RefreshToken: stored.RefreshToken,
			Transport:    a.transport,
			Logger:       a.logger,
		}
		token, err := refresh.Execute(ctx, a.client)
		if err == nil {
			return token, nil
		}
		if !IsInvalidGrant(err) {
			return nil, err
		}
		logger.Warn("Refresh token rejected, re-running primary flow",
			zap.String("flow", a.flow.Kind()))
	}

	logger.Info("Acquiring token", zap.String("flow", a.flow.Kind()))
	return a.flow.Execute(ctx, a.client)
}

// send clones the request, attaches the token, and forwards it to the
// transport collaborator.
func (a *Authenticator) send(req *http.Request, token *Token) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if req.GetBody != nil {
		// Always take a fresh body reader so the retry after a 401 does not
		// replay a consumed stream.
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		if req.Body != nil {
			// The transport owns the request body; the original reader is
			// replaced and would otherwise never be closed.
			_ = req.Body.Close()
		}
		cloned.Body = body
	}
	cloned.Header.Set("Authorization", token.Type()+" "+token.AccessToken)
	return a.transport.RoundTrip(cloned)
}

// drain discards and closes a response body so the underlying connection can
// be reused for the retry.
func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()
	}
}
