package oauth

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidAt(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token *Token
		want  bool
	}{
		{
			name:  "nil token",
			token: nil,
			want:  false,
		},
		{
			name:  "empty access token",
			token: &Token{ExpiresAt: now.Add(time.Hour)},
			want:  false,
		},
		{
			name:  "no expiry means valid",
			token: &Token{AccessToken: "tok"},
			want:  true,
		},
		{
			name:  "well before expiry",
			token: &Token{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)},
			want:  true,
		},
		{
			name:  "past expiry",
			token: &Token{AccessToken: "tok", ExpiresAt: now.Add(-time.Minute)},
			want:  false,
		},
		{
			name:  "inside the skew margin counts as expired",
			token: &Token{AccessToken: "tok", ExpiresAt: now.Add(expirySkew - time.Second)},
			want:  false,
		},
		{
			name:  "just outside the skew margin",
			token: &Token{AccessToken: "tok", ExpiresAt: now.Add(expirySkew + time.Second)},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.validAt(now))
		})
	}
}

func TestTokenType(t *testing.T) {
	assert.Equal(t, "Bearer", (&Token{}).Type())
	assert.Equal(t, "MAC", (&Token{TokenType: "MAC"}).Type())
}

func TestTokenRedaction(t *testing.T) {
	token := &Token{
		AccessToken:  "super-secret-access-token",
		RefreshToken: "super-secret-refresh-token",
		TokenType:    "Bearer",
	}

	t.Run("stringer", func(t *testing.T) {
		assert.NotContains(t, token.String(), "super-secret")
		assert.NotContains(t, fmt.Sprintf("%v", token), "super-secret")
		assert.NotContains(t, fmt.Sprintf("%s", token), "super-secret")
	})

	t.Run("go stringer", func(t *testing.T) {
		assert.NotContains(t, fmt.Sprintf("%#v", token), "super-secret")
	})

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(token)
		require.NoError(t, err)
		assert.Equal(t, `"[REDACTED]"`, string(data))

		wrapped, err := json.Marshal(map[string]*Token{"token": token})
		require.NoError(t, err)
		assert.NotContains(t, string(wrapped), "super-secret")
	})

	t.Run("text", func(t *testing.T) {
		data, err := token.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "[REDACTED]", string(data))
	})
}
