package oauth

// Status is the authentication state of a client, derived from its cached
// token. Used by the status command and health reporting.
type Status string

const (
	// StatusNone means no token has ever been cached for the client.
	StatusNone Status = "none"

	// StatusAuthenticated means a still-valid token is cached.
	StatusAuthenticated Status = "authenticated"

	// StatusExpired means the cached token is past its expiry; the next
	// request will trigger a refresh or a fresh flow.
	StatusExpired Status = "expired"
)

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// CalculateStatus derives the Status for a cached token. A nil token means
// the client has never authenticated.
func CalculateStatus(token *Token) Status {
	if token == nil || token.AccessToken == "" {
		return StatusNone
	}
	if !token.Valid() {
		return StatusExpired
	}
	return StatusAuthenticated
}

// CanRefresh reports whether an expired client can recover without user
// interaction.
func CanRefresh(token *Token) bool {
	return token != nil && token.RefreshToken != ""
}
