package oauth

import "time"

// expirySkew is the safety margin applied to token expiry. It is subtracted
// when deriving ExpiresAt from expires_in and added when checking validity,
// absorbing clock skew between us and the authorization server plus network
// latency on the request that carries the token.
const expirySkew = 30 * time.Second

// Token is the credential pair minted by a flow exchange. Tokens are never
// mutated in place: a refresh produces a new Token that supersedes the old
// one in the cache.
//
// All textual representations redact the credential material. Use
// AccessToken/RefreshToken directly only to build an Authorization header or
// a refresh exchange, never for logging.
type Token struct {
	// AccessToken is the short-lived credential submitted with each request.
	AccessToken string

	// TokenType is the scheme for the Authorization header, usually "Bearer".
	TokenType string

	// ExpiresAt is the absolute expiry instant, already shortened by the
	// safety skew at mint time. Zero means the server declared no lifetime;
	// such tokens are treated as valid until a 401 proves otherwise.
	ExpiresAt time.Time

	// RefreshToken is the longer-lived credential used only to mint new
	// access tokens. Optional.
	RefreshToken string

	// Scope is the space-separated scope set actually granted; possibly
	// empty, possibly narrower than requested.
	Scope string
}

// Valid reports whether the token can still be attached to a request:
// a non-empty access token whose expiry (if any) is further than the skew
// margin in the future.
func (t *Token) Valid() bool {
	return t.validAt(time.Now())
}

func (t *Token) validAt(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(expirySkew).Before(t.ExpiresAt)
}

// Type returns the token type, defaulting to "Bearer" for servers that omit
// it from the token response.
func (t *Token) Type() string {
	if t.TokenType == "" {
		return "Bearer"
	}
	return t.TokenType
}

// String implements fmt.Stringer, redacting the credential material.
func (t *Token) String() string {
	return "oauth.Token{[REDACTED]}"
}

// GoString implements fmt.GoStringer for %#v formatting, also redacted.
func (t *Token) GoString() string {
	return "oauth.Token{[REDACTED]}"
}

// MarshalText implements encoding.TextMarshaler, preventing the token from
// reaching logs or API responses through text serialization.
func (t *Token) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler with the same redaction. The cache
// persists tokens through a dedicated record type, never through this.
func (t *Token) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
