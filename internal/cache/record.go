// Package cache stores tokens across requests and sessions: a process-wide
// in-memory tier, an optional encrypted on-disk tier, and a read-through
// layering of the two. All tiers key entries by client name.
package cache

import (
	"encoding/json"
	"time"

	"github.com/authkit-dev/authkit/internal/oauth"
)

// tokenRecord is the persisted form of a token. Unlike oauth.Token it
// serializes its real values; it only ever exists as ciphertext on disk.
type tokenRecord struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	StoredAt     time.Time `json:"stored_at"`
}

func newTokenRecord(token *oauth.Token, storedAt time.Time) *tokenRecord {
	return &tokenRecord{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.ExpiresAt,
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
		StoredAt:     storedAt,
	}
}

func (r *tokenRecord) token() *oauth.Token {
	return &oauth.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		ExpiresAt:    r.ExpiresAt,
		RefreshToken: r.RefreshToken,
		Scope:        r.Scope,
	}
}

func (r *tokenRecord) marshal() ([]byte, error) {
	return json.Marshal(r)
}

func (r *tokenRecord) unmarshal(data []byte) error {
	return json.Unmarshal(data, r)
}
