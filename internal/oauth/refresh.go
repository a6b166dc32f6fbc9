package oauth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// RefreshFlow exchanges an existing refresh token for a new token. The
// authorization server may rotate the refresh token or keep it; when the
// response omits one, the previous refresh token is carried forward into the
// resulting Token so later refreshes still work.
type RefreshFlow struct {
	// RefreshToken to exchange. Required.
	RefreshToken string

	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Kind implements Flow.
func (f *RefreshFlow) Kind() string { return "refresh_token" }

// Execute implements Flow.
func (f *RefreshFlow) Execute(ctx context.Context, client *Client) (*Token, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if f.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	ctx = ensureCorrelation(ctx)
	logger := flowLogger(ctx, f.Logger, f.Kind()).With(zap.String("client", client.Name))

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", f.RefreshToken)

	token, err := exchangeToken(ctx, f.Transport, client, client.TokenURL, form)
	if err != nil {
		return nil, err
	}

	// Server kept the old refresh token: retain it rather than losing the
	// ability to refresh again.
	if token.RefreshToken == "" {
		token.RefreshToken = f.RefreshToken
	}

	logger.Debug("Refresh exchange succeeded", zap.Time("expires_at", token.ExpiresAt))
	return token, nil
}
