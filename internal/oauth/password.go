package oauth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// PasswordFlow implements the resource-owner password grant: a single
// exchange submitting the user's credentials alongside the client's.
//
// The grant is deprecated by the OAuth 2.0 Security BCP and exists here only
// for authorization servers that offer nothing better. Prefer
// AuthorizationCodeFlow or DeviceFlow wherever possible.
type PasswordFlow struct {
	Username string
	Password string

	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Kind implements Flow.
func (f *PasswordFlow) Kind() string { return "password" }

// Execute implements Flow.
func (f *PasswordFlow) Execute(ctx context.Context, client *Client) (*Token, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if f.Username == "" {
		return nil, &ConfigError{Field: "password.username", Reason: "required"}
	}
	if f.Password == "" {
		return nil, &ConfigError{Field: "password.password", Reason: "required"}
	}

	ctx = ensureCorrelation(ctx)
	logger := flowLogger(ctx, f.Logger, f.Kind()).With(zap.String("client", client.Name))
	logger.Warn("Using the deprecated password grant")

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", f.Username)
	form.Set("password", f.Password)
	if scope := scopeValue(client); scope != "" {
		form.Set("scope", scope)
	}

	token, err := exchangeToken(ctx, f.Transport, client, client.TokenURL, form)
	if err != nil {
		return nil, err
	}
	logger.Debug("Password exchange succeeded", zap.Time("expires_at", token.ExpiresAt))
	return token, nil
}
