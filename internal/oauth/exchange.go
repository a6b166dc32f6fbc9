package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBodySize bounds how much of an error response is read when looking
// for an OAuth error payload.
const maxErrorBodySize = 64 * 1024

// tokenResponse is the JSON body of a successful token endpoint exchange.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// tokenErrorResponse is the JSON error payload defined by RFC 6749.
type tokenErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// exchangeToken POSTs a form-encoded grant request to the given endpoint and
// decodes the JSON token response. Client credentials are submitted as form
// fields (client_secret_post). A well-formed error payload becomes a
// *ProtocolError; transport failures become a *NetworkError. Neither carries
// credential material.
func exchangeToken(ctx context.Context, rt http.RoundTripper, client *Client, endpoint string, form url.Values) (*Token, error) {
	form.Set("client_id", client.ID)
	if client.Secret != "" {
		form.Set("client_secret", client.Secret)
	}

	body, status, err := postForm(ctx, rt, endpoint, form)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}

	if status < 200 || status >= 300 {
		return nil, decodeProtocolError(body, status)
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("token endpoint returned malformed response (HTTP %d): %w", status, err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint response missing access_token (HTTP %d)", status)
	}

	token := &Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		Scope:        resp.Scope,
	}
	if resp.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - expirySkew)
	}
	return token, nil
}

// decodeProtocolError turns a non-2xx token endpoint body into an error.
// Bodies that parse as an OAuth error payload become a *ProtocolError;
// anything else is reported by status alone so no response fragment (which
// could echo request parameters) leaks into logs.
func decodeProtocolError(body []byte, status int) error {
	var resp tokenErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Code != "" {
		return &ProtocolError{Code: resp.Code, Description: resp.Description, Status: status}
	}
	return fmt.Errorf("token endpoint returned HTTP %d", status)
}

// postForm performs one form-encoded POST over the supplied transport and
// returns the response body and status.
func postForm(ctx context.Context, rt http.RoundTripper, endpoint string, form url.Values) ([]byte, int, error) {
	if rt == nil {
		rt = http.DefaultTransport
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	httpClient := &http.Client{Transport: rt}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	// Success bodies are read in full; only failure bodies, which may carry
	// an arbitrary HTML error page, are capped.
	var reader io.Reader = resp.Body
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reader = io.LimitReader(resp.Body, maxErrorBodySize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// scopeValue joins the client's scopes into the space-separated form the
// token endpoint expects. Returns "" when no scopes are configured so the
// parameter is omitted entirely.
func scopeValue(c *Client) string {
	return strings.Join(c.Scopes, " ")
}
