package cache

import (
	"go.uber.org/zap"

	"github.com/authkit-dev/authkit/internal/oauth"
)

// LayeredStore reads through the in-memory tier into the disk tier and
// writes through both. Disk failures degrade rather than fail: a read error
// is logged and treated as a miss, a write error is logged and the memory
// tier still gets the token. The disk tier may be nil, which leaves a
// memory-only cache.
type LayeredStore struct {
	memory *MemoryStore
	disk   *DiskStore
	logger *zap.Logger
}

// NewLayeredStore combines the memory tier with an optional disk tier.
func NewLayeredStore(memory *MemoryStore, disk *DiskStore, logger *zap.Logger) *LayeredStore {
	if logger == nil {
		logger = zap.L()
	}
	return &LayeredStore{
		memory: memory,
		disk:   disk,
		logger: logger.Named("token-cache"),
	}
}

// Get implements oauth.TokenStore. A disk hit is promoted into the memory
// tier so later lookups stay off disk.
func (s *LayeredStore) Get(clientName string) (*oauth.Token, error) {
	token, err := s.memory.Get(clientName)
	if err == nil && token != nil {
		return token, nil
	}

	if s.disk == nil {
		return nil, nil
	}

	token, err = s.disk.Get(clientName)
	if err != nil {
		s.logger.Warn("Disk cache read failed, treating as miss",
			zap.String("client", clientName),
			zap.Error(err))
		return nil, nil
	}
	if token == nil {
		return nil, nil
	}

	if err := s.memory.Put(clientName, token); err != nil {
		s.logger.Warn("Failed to promote token to memory cache",
			zap.String("client", clientName),
			zap.Error(err))
	}
	return token, nil
}

// Put implements oauth.TokenStore, writing through both tiers.
func (s *LayeredStore) Put(clientName string, token *oauth.Token) error {
	if err := s.memory.Put(clientName, token); err != nil {
		return err
	}
	if s.disk == nil {
		return nil
	}
	if err := s.disk.Put(clientName, token); err != nil {
		s.logger.Warn("Disk cache write failed, token held in memory only",
			zap.String("client", clientName),
			zap.Error(err))
	}
	return nil
}

// Invalidate implements oauth.TokenStore, removing the entry from both
// tiers. Disk removal failures are surfaced: a credential the caller asked
// to discard must not silently survive on disk.
func (s *LayeredStore) Invalidate(clientName string) error {
	if err := s.memory.Invalidate(clientName); err != nil {
		return err
	}
	if s.disk == nil {
		return nil
	}
	return s.disk.Invalidate(clientName)
}
