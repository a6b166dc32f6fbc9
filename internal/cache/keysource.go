package cache

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// masterKeySize is the size of the disk-tier master key in bytes.
const masterKeySize = 32

// keyringEntry is the keyring account name holding the master key.
const keyringEntry = "cache-encryption-key"

// KeySource supplies the master key material the disk tier derives its
// per-client encryption keys from. The key is machine/user-scoped and never
// embedded in source.
type KeySource interface {
	// MasterKey returns the 32-byte master key, minting and persisting one
	// on first use.
	MasterKey() ([]byte, error)
}

// KeyringKeySource holds the master key in the OS keyring (Keychain, Secret
// Service, WinCred) under the authkit service.
type KeyringKeySource struct {
	service string
}

// NewKeyringKeySource creates a key source backed by the OS keyring for the
// given service name.
func NewKeyringKeySource(service string) *KeyringKeySource {
	return &KeyringKeySource{service: service}
}

// MasterKey implements KeySource.
func (s *KeyringKeySource) MasterKey() ([]byte, error) {
	encoded, err := keyring.Get(s.service, keyringEntry)
	if err == nil {
		key, decErr := base64.StdEncoding.DecodeString(encoded)
		if decErr != nil || len(key) != masterKeySize {
			return nil, fmt.Errorf("keyring holds a malformed cache key")
		}
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("failed to read cache key from keyring: %w", err)
	}

	key := make([]byte, masterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate cache key: %w", err)
	}
	if err := keyring.Set(s.service, keyringEntry, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("failed to store cache key in keyring: %w", err)
	}
	return key, nil
}

// FileKeySource holds the master key in a 0600 file. Fallback for headless
// systems without a keyring backend; the protection is whatever the
// filesystem grants the current user.
type FileKeySource struct {
	path string
}

// NewFileKeySource creates a key source backed by a key file at path.
func NewFileKeySource(path string) *FileKeySource {
	return &FileKeySource{path: path}
}

// MasterKey implements KeySource.
func (s *FileKeySource) MasterKey() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err == nil {
		if len(data) != masterKeySize {
			return nil, fmt.Errorf("key file %s is malformed", s.path)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key := make([]byte, masterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate cache key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(s.path, key, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

// DefaultKeySource prefers the OS keyring and falls back to a key file under
// the cache root when no keyring backend is available.
func DefaultKeySource(service, cacheRoot string) KeySource {
	probe := NewKeyringKeySource(service)
	if _, err := probe.MasterKey(); err == nil {
		return probe
	}
	return NewFileKeySource(filepath.Join(cacheRoot, ".cache-key"))
}
