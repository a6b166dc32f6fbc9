package oauth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvalidGrant(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "invalid_grant",
			err:  &ProtocolError{Code: "invalid_grant", Status: 400},
			want: true,
		},
		{
			name: "wrapped invalid_grant",
			err:  fmt.Errorf("refresh failed: %w", &ProtocolError{Code: "invalid_grant"}),
			want: true,
		},
		{
			name: "other protocol error",
			err:  &ProtocolError{Code: "invalid_client", Status: 401},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInvalidGrant(tt.err))
		})
	}
}

func TestErrorMessagesCarryNoSecrets(t *testing.T) {
	pe := &ProtocolError{Code: "invalid_grant", Description: "token revoked", Status: 400}
	assert.Equal(t, "token endpoint error: invalid_grant: token revoked", pe.Error())

	ne := &NetworkError{Endpoint: "https://as.example.com/token", Err: errors.New("dial timeout")}
	assert.Contains(t, ne.Error(), "token endpoint unreachable")
	assert.ErrorIs(t, ne, ne.Err, "unwrap should expose the transport error")

	ce := &CacheError{ClientName: "api", Op: "get", Err: errors.New("corrupt")}
	assert.Contains(t, ce.Error(), `token cache get failed for "api"`)
}
