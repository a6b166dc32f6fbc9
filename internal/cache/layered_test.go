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

func newTestLayeredStore(t *testing.T, root string) (*LayeredStore, *DiskStore) {
	t.Helper()
	disk := newTestDiskStore(t, root)
	return NewLayeredStore(NewMemoryStore(), disk, zap.NewNop()), disk
}

func TestLayeredStoreWriteThrough(t *testing.T) {
	root := t.TempDir()
	store, disk := newTestLayeredStore(t, root)

	token := sampleToken("layered")
	require.NoError(t, store.Put("api", token))

	// Both tiers hold the token.
	fromDisk, err := disk.Get("api")
	require.NoError(t, err)
	require.NotNil(t, fromDisk)
	assert.Equal(t, "layered", fromDisk.AccessToken)

	got, err := store.Get("api")
	require.NoError(t, err)
	assert.Equal(t, "layered", got.AccessToken)
}

func TestLayeredStoreDiskPromotion(t *testing.T) {
	root := t.TempDir()

	// Seed the disk tier, then read through a fresh layered store whose
	// memory tier starts empty, as after a restart.
	seed, disk := newTestLayeredStore(t, root)
	require.NoError(t, seed.Put("api", sampleToken("persisted")))
	_ = disk

	restarted, _ := newTestLayeredStore(t, root)
	got, err := restarted.Get("api")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "persisted", got.AccessToken)

	// The hit was promoted: wiping the disk file does not lose the token.
	require.NoError(t, os.RemoveAll(filepath.Join(root, "api")))
	got, err = restarted.Get("api")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "persisted", got.AccessToken)
}

func TestLayeredStoreDegradesCorruptDiskToMiss(t *testing.T) {
	root := t.TempDir()
	store, disk := newTestLayeredStore(t, root)

	require.NoError(t, disk.Put("api", sampleToken("x")))
	require.NoError(t, os.WriteFile(disk.tokenPath("api"), []byte("junk"), 0o600))

	got, err := store.Get("api")
	assert.NoError(t, err, "a corrupt disk entry must not fail the lookup")
	assert.Nil(t, got)
}

func TestLayeredStoreInvalidate(t *testing.T) {
	root := t.TempDir()
	store, disk := newTestLayeredStore(t, root)

	require.NoError(t, store.Put("api", sampleToken("x")))
	require.NoError(t, store.Invalidate("api"))

	got, err := store.Get("api")
	assert.NoError(t, err)
	assert.Nil(t, got)

	fromDisk, err := disk.Get("api")
	assert.NoError(t, err)
	assert.Nil(t, fromDisk, "invalidation must reach the disk tier")
}

func TestLayeredStoreMemoryOnly(t *testing.T) {
	store := NewLayeredStore(NewMemoryStore(), nil, zap.NewNop())

	require.NoError(t, store.Put("api", &oauth.Token{
		AccessToken: "mem",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	got, err := store.Get("api")
	require.NoError(t, err)
	assert.Equal(t, "mem", got.AccessToken)

	require.NoError(t, store.Invalidate("api"))
	got, err = store.Get("api")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
