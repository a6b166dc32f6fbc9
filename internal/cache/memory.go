package cache

import (
	"sync"

	"github.com/authkit-dev/authkit/internal/oauth"
)

// MemoryStore is the process-wide in-memory tier: a plain map guarded by a
// read-write mutex. It starts empty at process start, lives as long as the
// process, and is injected rather than hidden behind a package global so
// tests can build isolated instances.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth.Token
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]*oauth.Token)}
}

// Get implements oauth.TokenStore. Returns (nil, nil) on a miss; expiry is
// the caller's concern, not the store's.
func (s *MemoryStore) Get(clientName string) (*oauth.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[clientName], nil
}

// Put implements oauth.TokenStore.
func (s *MemoryStore) Put(clientName string, token *oauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[clientName] = token
	return nil
}

// Invalidate implements oauth.TokenStore.
func (s *MemoryStore) Invalidate(clientName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, clientName)
	return nil
}
