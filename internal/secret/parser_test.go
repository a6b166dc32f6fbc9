package secret

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSecretRef(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"${env:API_SECRET}", true},
		{"${keyring:github-token}", true},
		{"${obf:AbCd123}", true},
		{"obf1:AbCd123", true},
		{"plain-secret-value", false},
		{"${}", false},
		{"${env:}", false},
		{"$env:FOO", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSecretRef(tt.value))
		})
	}
}

func TestParseRef(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		ref, err := ParseRef("${env:API_SECRET}")
		require.NoError(t, err)
		assert.Equal(t, TypeEnv, ref.Type)
		assert.Equal(t, "API_SECRET", ref.Name)
	})

	t.Run("keyring", func(t *testing.T) {
		ref, err := ParseRef("${keyring:github-token}")
		require.NoError(t, err)
		assert.Equal(t, TypeKeyring, ref.Type)
		assert.Equal(t, "github-token", ref.Name)
	})

	t.Run("obf payload keeps its colons", func(t *testing.T) {
		ref, err := ParseRef("${obf:obf1:AbCd}")
		require.NoError(t, err)
		assert.Equal(t, TypeObf, ref.Type)
		assert.Equal(t, "obf1:AbCd", ref.Name)
	})

	t.Run("bare obfuscated value", func(t *testing.T) {
		ref, err := ParseRef("obf1:AbCd")
		require.NoError(t, err)
		assert.Equal(t, TypeObf, ref.Type)
		assert.Equal(t, "obf1:AbCd", ref.Name)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ParseRef("${vault:path/to/secret}")
		assert.Error(t, err)
	})

	t.Run("not a reference", func(t *testing.T) {
		_, err := ParseRef("plain-value")
		assert.Error(t, err)
	})
}

func TestResolverResolveString(t *testing.T) {
	resolver := NewResolver()
	ctx := context.Background()

	t.Run("literal passes through", func(t *testing.T) {
		value, err := resolver.ResolveString(ctx, "literal-secret")
		require.NoError(t, err)
		assert.Equal(t, "literal-secret", value)
	})

	t.Run("env reference", func(t *testing.T) {
		t.Setenv("AUTHKIT_TEST_SECRET", "from-env")
		value, err := resolver.ResolveString(ctx, "${env:AUTHKIT_TEST_SECRET}")
		require.NoError(t, err)
		assert.Equal(t, "from-env", value)
	})

	t.Run("missing env variable", func(t *testing.T) {
		_, err := resolver.ResolveString(ctx, "${env:AUTHKIT_TEST_DEFINITELY_UNSET}")
		assert.Error(t, err)
	})

	t.Run("obf reference", func(t *testing.T) {
		encoded := Obfuscate("tucked-away")
		value, err := resolver.ResolveString(ctx, "${obf:"+encoded+"}")
		require.NoError(t, err)
		assert.Equal(t, "tucked-away", value)
	})

	t.Run("bare obfuscated value", func(t *testing.T) {
		encoded := Obfuscate("tucked-away")
		value, err := resolver.ResolveString(ctx, encoded)
		require.NoError(t, err)
		assert.Equal(t, "tucked-away", value)
	})
}
