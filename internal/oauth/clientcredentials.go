package oauth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// ClientCredentialsFlow implements the client_credentials grant: a single
// non-interactive exchange authenticated by the client's own credentials.
// This is the flow for service accounts.
type ClientCredentialsFlow struct {
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Kind implements Flow.
func (f *ClientCredentialsFlow) Kind() string { return "client_credentials" }

// Execute implements Flow.
func (f *ClientCredentialsFlow) Execute(ctx context.Context, client *Client) (*Token, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if client.Secret == "" {
		return nil, &ConfigError{Field: "client.secret", Reason: "required for the client_credentials flow"}
	}

	ctx = ensureCorrelation(ctx)
	logger := flowLogger(ctx, f.Logger, f.Kind()).With(zap.String("client", client.Name))

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if scope := scopeValue(client); scope != "" {
		form.Set("scope", scope)
	}

	token, err := exchangeToken(ctx, f.Transport, client, client.TokenURL, form)
	if err != nil {
		return nil, err
	}
	logger.Debug("Client credentials exchange succeeded",
		zap.Time("expires_at", token.ExpiresAt))
	return token, nil
}
