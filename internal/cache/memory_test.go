package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authkit-dev/authkit/internal/oauth"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	t.Run("miss is nil nil", func(t *testing.T) {
		token, err := store.Get("absent")
		assert.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put("api", &oauth.Token{AccessToken: "tok"}))
		token, err := store.Get("api")
		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, "tok", token.AccessToken)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, store.Put("gone", &oauth.Token{AccessToken: "tok"}))
		require.NoError(t, store.Invalidate("gone"))
		token, err := store.Get("gone")
		assert.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("clients are independent", func(t *testing.T) {
		require.NoError(t, store.Put("a", &oauth.Token{AccessToken: "a-tok"}))
		require.NoError(t, store.Put("b", &oauth.Token{AccessToken: "b-tok"}))
		require.NoError(t, store.Invalidate("a"))

		token, err := store.Get("b")
		require.NoError(t, err)
		assert.Equal(t, "b-tok", token.AccessToken)
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Put("shared", &oauth.Token{AccessToken: "tok"})
			_, _ = store.Get("shared")
			_ = store.Invalidate("shared")
		}()
	}
	wg.Wait()
}
