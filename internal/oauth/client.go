package oauth

import "go.uber.org/zap/zapcore"

// Client identifies a registered OAuth application. It is a value object:
// construct it once and treat it as immutable. Name doubles as the cache
// namespace key, so two clients sharing a Name but carrying different
// credentials are a caller error.
type Client struct {
	// Name is the human identifier for this client and the key under which
	// its tokens are cached. Required.
	Name string

	// ID is the client identifier registered with the authorization server.
	// Required.
	ID string

	// Secret is the client secret for confidential clients. Optional;
	// public clients leave it empty.
	Secret string

	// TokenURL is the authorization server's token endpoint. Required.
	TokenURL string

	// AuthURL is the authorization endpoint. Only the authorization-code
	// flow needs it.
	AuthURL string

	// DeviceAuthURL is the device authorization endpoint. The device flow
	// falls back to TokenURL when empty, for servers that multiplex both
	// on one endpoint.
	DeviceAuthURL string

	// Scopes requested when minting tokens.
	Scopes []string
}

// Validate checks the fields every flow depends on. Flow-specific
// requirements (AuthURL, username/password, signing keys) are validated by
// the individual flows.
func (c *Client) Validate() error {
	if c == nil {
		return &ConfigError{Field: "client", Reason: "not configured"}
	}
	if c.Name == "" {
		return &ConfigError{Field: "client.name", Reason: "required"}
	}
	if c.ID == "" {
		return &ConfigError{Field: "client.id", Reason: "required"}
	}
	if c.TokenURL == "" {
		return &ConfigError{Field: "client.token_url", Reason: "required"}
	}
	return nil
}

// deviceEndpoint returns the endpoint the device flow requests codes from.
func (c *Client) deviceEndpoint() string {
	if c.DeviceAuthURL != "" {
		return c.DeviceAuthURL
	}
	return c.TokenURL
}

// MarshalLogObject implements zapcore.ObjectMarshaler so a client can be
// logged without leaking its secret.
func (c *Client) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("name", c.Name)
	enc.AddString("client_id", maskSecret(c.ID))
	if c.Secret != "" {
		enc.AddString("client_secret", "***")
	}
	enc.AddString("token_url", c.TokenURL)
	return nil
}
