package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/authkit-dev/authkit/internal/oauth"
)

func newTestDiskStore(t *testing.T, root string) *DiskStore {
	t.Helper()
	keys := NewFileKeySource(filepath.Join(root, ".cache-key"))
	store, err := NewDiskStore(root, keys, zap.NewNop())
	require.NoError(t, err)
	return store
}

func sampleToken(access string) *oauth.Token {
	return &oauth.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
		RefreshToken: "refresh-" + access,
		Scope:        "read write",
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := newTestDiskStore(t, root)

	token := sampleToken("disk-token")
	require.NoError(t, store.Put("api", token))

	got, err := store.Get("api")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, token.AccessToken, got.AccessToken)
	assert.Equal(t, token.RefreshToken, got.RefreshToken)
	assert.Equal(t, token.Scope, got.Scope)
	assert.True(t, token.ExpiresAt.Equal(got.ExpiresAt))

	// Entries survive a process restart (a fresh store over the same root).
	reopened := newTestDiskStore(t, root)
	got, err = reopened.Get("api")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "disk-token", got.AccessToken)
}

func TestDiskStoreMiss(t *testing.T) {
	store := newTestDiskStore(t, t.TempDir())

	got, err := store.Get("never-seen")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDiskStoreInvalidate(t *testing.T) {
	store := newTestDiskStore(t, t.TempDir())

	require.NoError(t, store.Put("api", sampleToken("x")))
	require.NoError(t, store.Invalidate("api"))

	got, err := store.Get("api")
	assert.NoError(t, err)
	assert.Nil(t, got)

	// Invalidating an absent entry is not an error.
	assert.NoError(t, store.Invalidate("api"))
}

func TestDiskStoreCiphertextOnDisk(t *testing.T) {
	root := t.TempDir()
	store := newTestDiskStore(t, root)

	require.NoError(t, store.Put("api", sampleToken("visible-token-value")))

	data, err := os.ReadFile(store.tokenPath("api"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "visible-token-value",
		"token material must not be readable from the file")
	assert.NotContains(t, string(data), "refresh-visible-token-value")
}

func TestDiskStoreTamperDetection(t *testing.T) {
	root := t.TempDir()
	store := newTestDiskStore(t, root)

	require.NoError(t, store.Put("api", sampleToken("x")))

	path := store.tokenPath("api")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip a byte in the stored_at header field: it is bound into the AEAD
	// as associated data, so the read must fail authentication.
	data[7] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = store.Get("api")
	var cacheErr *oauth.CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "get", cacheErr.Op)
}

func TestDiskStoreCorruptEntry(t *testing.T) {
	root := t.TempDir()
	store := newTestDiskStore(t, root)

	require.NoError(t, os.MkdirAll(store.clientDir("api"), 0o700))
	require.NoError(t, os.WriteFile(store.tokenPath("api"), []byte("junk"), 0o600))

	_, err := store.Get("api")
	var cacheErr *oauth.CacheError
	require.ErrorAs(t, err, &cacheErr)
}

func TestDiskStoreRetentionSweep(t *testing.T) {
	root := t.TempDir()
	store := newTestDiskStore(t, root)

	// Forge entries written 31 and 29 days ago by bending the store clock.
	store.now = func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }
	require.NoError(t, store.Put("ancient", sampleToken("old")))

	store.now = func() time.Time { return time.Now().Add(-29 * 24 * time.Hour) }
	require.NoError(t, store.Put("recent", sampleToken("new")))

	// Opening the store again runs the sweep with the real clock.
	swept := newTestDiskStore(t, root)

	got, err := swept.Get("ancient")
	assert.NoError(t, err)
	assert.Nil(t, got, "entries beyond the retention window are deleted")

	got, err = swept.Get("recent")
	require.NoError(t, err)
	require.NotNil(t, got, "entries inside the retention window survive")
	assert.Equal(t, "new", got.AccessToken)
}

func TestDiskStoreClientDirNames(t *testing.T) {
	root := t.TempDir()
	store := newTestDiskStore(t, root)

	t.Run("clean names map directly", func(t *testing.T) {
		assert.Equal(t, filepath.Join(root, "my-api_v2"), store.clientDir("my-api_v2"))
	})

	t.Run("unsafe names are sanitized and disambiguated", func(t *testing.T) {
		a := store.clientDir("api/prod")
		b := store.clientDir("api:prod")
		assert.NotEqual(t, a, b, "distinct names must not collide after sanitization")
		assert.NotContains(t, filepath.Base(a), "/")
	})

	t.Run("distinct keys per client", func(t *testing.T) {
		require.NoError(t, store.Put("alpha", sampleToken("alpha-token")))
		require.NoError(t, store.Put("beta", sampleToken("beta-token")))

		got, err := store.Get("alpha")
		require.NoError(t, err)
		assert.Equal(t, "alpha-token", got.AccessToken)
		got, err = store.Get("beta")
		require.NoError(t, err)
		assert.Equal(t, "beta-token", got.AccessToken)
	})
}

func TestFileKeySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", ".cache-key")
	source := NewFileKeySource(path)

	key1, err := source.MasterKey()
	require.NoError(t, err)
	assert.Len(t, key1, masterKeySize)

	// Stable across reads.
	key2, err := source.MasterKey()
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
