package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	callbackHost = "127.0.0.1"
	callbackPath = "/oauth/callback"
)

// CallbackResult carries the query parameters delivered to the redirect URI
// by the authorization server.
type CallbackResult struct {
	Code             string // authorization code
	State            string // state echoed back by the server
	ErrorCode        string // OAuth error code when the user denied access
	ErrorDescription string
}

// CallbackReceiver accepts exactly one authorization-code redirect. The
// default implementation listens on a loopback port; tests substitute a
// synthetic receiver so no browser or socket is involved.
type CallbackReceiver interface {
	// RedirectURI returns the URI the authorization server should redirect
	// to. It must be stable for the lifetime of the receiver.
	RedirectURI() string

	// Await blocks until the callback fires or ctx is done.
	Await(ctx context.Context) (*CallbackResult, error)

	// Close releases the receiver's resources. Safe to call more than once.
	Close() error
}

// loopbackReceiver is a short-lived local HTTP server on a dynamically
// allocated loopback port, alive only for the duration of one
// authorization-code exchange.
type loopbackReceiver struct {
	redirectURI string
	server      *http.Server
	listener    net.Listener
	results     chan *CallbackResult
	logger      *zap.Logger
}

// NewLoopbackReceiver starts a callback listener on an OS-assigned loopback
// port and returns it ready to accept one redirect.
func NewLoopbackReceiver(logger *zap.Logger) (CallbackReceiver, error) {
	if logger == nil {
		logger = zap.L()
	}

	listener, err := net.Listen("tcp", callbackHost+":0")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate callback port: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	r := &loopbackReceiver{
		redirectURI: fmt.Sprintf("http://%s:%d%s", callbackHost, port, callbackPath),
		listener:    listener,
		results:     make(chan *CallbackResult, 1),
		logger:      logger.Named("oauth-callback").With(zap.Int("port", port)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, r.handle)
	r.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, // prevent Slowloris on the open port
	}

	go func() {
		if err := r.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			r.logger.Error("Callback server error", zap.Error(err))
		}
	}()

	r.logger.Debug("Callback server started", zap.String("redirect_uri", r.redirectURI))
	return r, nil
}

func (r *loopbackReceiver) RedirectURI() string { return r.redirectURI }

func (r *loopbackReceiver) handle(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	result := &CallbackResult{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		ErrorCode:        q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	// Only the first callback counts; stragglers are dropped.
	select {
	case r.results <- result:
		r.logger.Debug("Authorization callback received")
	default:
		r.logger.Warn("Duplicate authorization callback ignored")
	}

	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(`<html><body>
<h1>Authorization Complete</h1>
<p>You can close this window and return to the application.</p>
</body></html>`))
}

func (r *loopbackReceiver) Await(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-r.results:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *loopbackReceiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}
