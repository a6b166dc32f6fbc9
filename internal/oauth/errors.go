// Package oauth implements the OAuth 2.0 token lifecycle: client
// configuration, the grant flows that mint tokens, and the request
// middleware that attaches and refreshes them.
package oauth

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all flow variants.
var (
	// ErrStateMismatch indicates the authorization callback returned a state
	// value that does not match the one generated for the attempt. This is
	// the CSRF guard of the authorization-code flow; the flow is aborted and
	// no token is produced.
	ErrStateMismatch = errors.New("authorization callback state mismatch")

	// ErrFlowTimeout indicates an interactive or polling flow exceeded its
	// deadline. The attempt is dead; the caller may retry the whole flow.
	ErrFlowTimeout = errors.New("timeout waiting for authorization flow to complete")

	// ErrNoRefreshToken indicates a refresh was requested but the stored
	// token carries no refresh token. Some authorization servers never
	// issue one.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// ConfigError reports a missing or invalid client/flow parameter. It is
// always detected before any network call and is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// ProtocolError is a well-formed OAuth error payload returned by the token
// endpoint (RFC 6749 section 5.2), e.g. "invalid_grant". It carries the
// server-provided code and description and is not retried, with the
// exception of the device-flow "authorization_pending" and "slow_down"
// codes which the device flow consumes as intermediate states.
type ProtocolError struct {
	Code        string // OAuth error code, e.g. "invalid_grant"
	Description string // optional human-readable detail from the server
	Status      int    // HTTP status of the response
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("token endpoint error: %s", e.Code)
	}
	return fmt.Sprintf("token endpoint error: %s: %s", e.Code, e.Description)
}

// NetworkError wraps a transport failure reaching the token endpoint.
// Retry policy, if any, belongs to the transport, not to this package.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("token endpoint unreachable: %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CacheError reports a token cache read/write or decryption failure. The
// cache degrades to treating the entry as absent rather than failing the
// request, so this error is logged but rarely surfaced.
type CacheError struct {
	ClientName string
	Op         string // "get", "put", "invalidate", "sweep"
	Err        error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("token cache %s failed for %q: %v", e.Op, e.ClientName, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// IsInvalidGrant reports whether err is a ProtocolError with the
// "invalid_grant" code, meaning a refresh token is expired or revoked and
// re-running the primary flow is the only way forward.
func IsInvalidGrant(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Code == "invalid_grant"
}
