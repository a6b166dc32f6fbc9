package secret

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObfuscateRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"short", "x"},
		{"typical secret", "my-client-secret-123"},
		{"non-ascii", "pässwörd-日本語-🔑"},
		{"longer than the keystream", strings.Repeat("long-secret/", 20)},
		{"binary-ish", "\x00\x01\xff\xfe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Obfuscate(tt.value)
			assert.True(t, strings.HasPrefix(encoded, "obf1:"))
			if tt.value != "" {
				assert.NotContains(t, encoded, tt.value, "plaintext must not survive encoding")
			}

			decoded, err := Reveal(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.value, decoded)
		})
	}
}

func TestRevealErrors(t *testing.T) {
	_, err := Reveal("plaintext-value")
	assert.Error(t, err, "missing prefix")

	_, err = Reveal("obf1:!!not-base64!!")
	assert.Error(t, err, "malformed payload")
}

func TestObfProvider(t *testing.T) {
	provider := NewObfProvider()
	ctx := context.Background()
	encoded := Obfuscate("hunter2-but-longer")

	t.Run("resolves with prefix", func(t *testing.T) {
		value, err := provider.Resolve(ctx, Ref{Type: TypeObf, Name: encoded})
		require.NoError(t, err)
		assert.Equal(t, "hunter2-but-longer", value)
	})

	t.Run("resolves bare payload", func(t *testing.T) {
		value, err := provider.Resolve(ctx, Ref{Type: TypeObf, Name: strings.TrimPrefix(encoded, "obf1:")})
		require.NoError(t, err)
		assert.Equal(t, "hunter2-but-longer", value)
	})

	t.Run("store and delete are rejected", func(t *testing.T) {
		assert.Error(t, provider.Store(ctx, Ref{Type: TypeObf, Name: "x"}, "v"))
		assert.Error(t, provider.Delete(ctx, Ref{Type: TypeObf, Name: "x"}))
	})
}

func TestMaskSecretValue(t *testing.T) {
	assert.Equal(t, "***", MaskSecretValue(""))
	assert.Equal(t, "***", MaskSecretValue("shortpw"))
	assert.Equal(t, "my-***-123", MaskSecretValue("my-client-secret-123"))
}
