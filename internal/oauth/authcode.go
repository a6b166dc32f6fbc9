package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAuthorizeTimeout bounds how long the flow waits for the user to
// finish in the browser before the attempt is abandoned.
const DefaultAuthorizeTimeout = 5 * time.Minute

// AuthorizationCodeFlow implements the interactive authorization-code grant:
// build the authorization URL with a per-attempt random state, open it in
// the browser, wait for exactly one redirect to the local callback receiver,
// verify the state, then exchange the code at the token endpoint.
type AuthorizationCodeFlow struct {
	// Receiver accepts the redirect. When nil, a loopback listener is
	// started for the duration of the exchange.
	Receiver CallbackReceiver

	// Browser opens the authorization URL. Defaults to SystemBrowser.
	Browser BrowserLauncher

	// Timeout bounds the wait for the callback. Defaults to
	// DefaultAuthorizeTimeout.
	Timeout time.Duration

	// Transport performs the token endpoint exchange. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	Logger *zap.Logger
}

// Kind implements Flow.
func (f *AuthorizationCodeFlow) Kind() string { return "authorization_code" }

// Execute implements Flow.
func (f *AuthorizationCodeFlow) Execute(ctx context.Context, client *Client) (*Token, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if client.AuthURL == "" {
		return nil, &ConfigError{Field: "client.auth_url", Reason: "required for the authorization_code flow"}
	}

	ctx = ensureCorrelation(ctx)
	logger := flowLogger(ctx, f.Logger, f.Kind()).With(zap.String("client", client.Name))

	receiver := f.Receiver
	if receiver == nil {
		var err error
		receiver, err = NewLoopbackReceiver(f.Logger)
		if err != nil {
			return nil, err
		}
		defer receiver.Close()
	}

	// Per-attempt random state is the CSRF guard for the redirect.
	state := uuid.New().String()

	authURL, err := f.authorizationURL(client, receiver.RedirectURI(), state)
	if err != nil {
		return nil, err
	}

	browser := f.Browser
	if browser == nil {
		browser = SystemBrowser{}
	}
	logger.Info("Opening browser for authorization",
		zap.String("auth_url", client.AuthURL))
	if err := browser.Open(authURL); err != nil {
		// The user can still follow the URL manually; the wait decides.
		logger.Warn("Failed to open browser", zap.Error(err))
	}

	timeout := f.Timeout
	if timeout == 0 {
		timeout = DefaultAuthorizeTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := receiver.Await(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrFlowTimeout
		}
		return nil, err
	}

	if result.ErrorCode != "" {
		return nil, &ProtocolError{Code: result.ErrorCode, Description: result.ErrorDescription}
	}
	if subtle.ConstantTimeCompare([]byte(result.State), []byte(state)) != 1 {
		logger.Warn("Authorization callback state mismatch")
		return nil, ErrStateMismatch
	}
	if result.Code == "" {
		return nil, fmt.Errorf("authorization callback carried no code")
	}

	logger.Debug("Authorization code received, exchanging for token")

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", result.Code)
	form.Set("redirect_uri", receiver.RedirectURI())

	token, err := exchangeToken(ctx, f.Transport, client, client.TokenURL, form)
	if err != nil {
		return nil, err
	}
	logger.Info("Authorization code exchange succeeded",
		zap.Time("expires_at", token.ExpiresAt))
	return token, nil
}

// authorizationURL builds the browser URL for the consent step.
func (f *AuthorizationCodeFlow) authorizationURL(client *Client, redirectURI, state string) (string, error) {
	u, err := url.Parse(client.AuthURL)
	if err != nil {
		return "", &ConfigError{Field: "client.auth_url", Reason: "not a valid URL"}
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", client.ID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	if scope := scopeValue(client); scope != "" {
		q.Set("scope", scope)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
