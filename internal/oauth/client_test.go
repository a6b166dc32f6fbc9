package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientValidate(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		wantField string
	}{
		{
			name:      "nil client",
			client:    nil,
			wantField: "client",
		},
		{
			name:      "missing name",
			client:    &Client{ID: "id", TokenURL: "https://as.example.com/token"},
			wantField: "client.name",
		},
		{
			name:      "missing id",
			client:    &Client{Name: "api", TokenURL: "https://as.example.com/token"},
			wantField: "client.id",
		},
		{
			name:      "missing token url",
			client:    &Client{Name: "api", ID: "id"},
			wantField: "client.token_url",
		},
		{
			name:   "valid",
			client: &Client{Name: "api", ID: "id", TokenURL: "https://as.example.com/token"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestClientDeviceEndpoint(t *testing.T) {
	client := &Client{TokenURL: "https://as.example.com/token"}
	assert.Equal(t, "https://as.example.com/token", client.deviceEndpoint())

	client.DeviceAuthURL = "https://as.example.com/device"
	assert.Equal(t, "https://as.example.com/device", client.deviceEndpoint())
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", "***"},
		{"short", "abc", "***"},
		{"exactly eight", "12345678", "***"},
		{"long", "client-id-1234567890", "cli***7890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskSecret(tt.secret))
		})
	}
}
