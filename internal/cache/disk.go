package cache

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/authkit-dev/authkit/internal/oauth"
)

const (
	// RetentionWindow bounds how long a token may sit on disk regardless of
	// its own lifetime: entries stored more than 30 days ago are swept at
	// startup even when they carry a longer-lived refresh token.
	RetentionWindow = 30 * 24 * time.Hour

	// tokenFileName is the single encrypted token file inside each client
	// directory.
	tokenFileName = "token.enc"

	// formatVersion is the on-disk file format version.
	formatVersion = 1

	// headerSize is magic (4) + version (1) + stored_at unix seconds (8).
	// The header stays cleartext so the retention sweep can prune without
	// decrypting, and it is bound into the AEAD as associated data so
	// tampering with stored_at is detected on read.
	headerSize = 13
)

// fileMagic marks authkit cache files.
var fileMagic = [4]byte{'A', 'K', 'T', 'C'}

// unsafeNameChars matches client-name characters that cannot appear in a
// directory name.
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// DiskStore is the encrypted on-disk tier: one directory per client name
// under the cache root, one encrypted token file per client. Contents are
// sealed with XChaCha20-Poly1305 under a per-client key derived from the
// machine/user-scoped master key via HKDF-SHA256.
//
// All I/O for a given client directory is serialized by a per-client mutex
// so concurrent encrypt/decrypt cannot corrupt an entry.
type DiskStore struct {
	root   string
	keys   KeySource
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDiskStore opens (creating if needed) the disk tier rooted at root and
// immediately runs the retention sweep, deleting any entry whose stored_at
// timestamp has fallen outside RetentionWindow.
func NewDiskStore(root string, keys KeySource, logger *zap.Logger) (*DiskStore, error) {
	if logger == nil {
		logger = zap.L()
	}
	if keys == nil {
		return nil, fmt.Errorf("disk store requires a key source")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache root %s: %w", root, err)
	}

	s := &DiskStore{
		root:   root,
		keys:   keys,
		logger: logger.Named("disk-cache"),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
	s.Sweep()
	return s, nil
}

// Get implements oauth.TokenStore. A missing entry is (nil, nil); a
// corrupt or undecryptable entry is reported as a *oauth.CacheError so the
// layer above can degrade to a miss.
func (s *DiskStore) Get(clientName string) (*oauth.Token, error) {
	lock := s.clientLock(clientName)
	lock.Lock()
	defer lock.Unlock()

	path := s.tokenPath(clientName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &oauth.CacheError{ClientName: clientName, Op: "get", Err: err}
	}

	record, err := s.decrypt(clientName, data)
	if err != nil {
		return nil, &oauth.CacheError{ClientName: clientName, Op: "get", Err: err}
	}
	return record.token(), nil
}

// Put implements oauth.TokenStore. The record is encrypted, written to a
// temp file, and renamed into place so readers never observe a partial
// entry.
func (s *DiskStore) Put(clientName string, token *oauth.Token) error {
	lock := s.clientLock(clientName)
	lock.Lock()
	defer lock.Unlock()

	storedAt := s.now()
	data, err := s.encrypt(clientName, newTokenRecord(token, storedAt), storedAt)
	if err != nil {
		return &oauth.CacheError{ClientName: clientName, Op: "put", Err: err}
	}

	dir := s.clientDir(clientName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &oauth.CacheError{ClientName: clientName, Op: "put", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return &oauth.CacheError{ClientName: clientName, Op: "put", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &oauth.CacheError{ClientName: clientName, Op: "put", Err: err}
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &oauth.CacheError{ClientName: clientName, Op: "put", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &oauth.CacheError{ClientName: clientName, Op: "put", Err: err}
	}
	if err := os.Rename(tmpName, s.tokenPath(clientName)); err != nil {
		os.Remove(tmpName)
		return &oauth.CacheError{ClientName: clientName, Op: "put", Err: err}
	}

	s.logger.Debug("Token persisted",
		zap.String("client", clientName),
		zap.Time("stored_at", storedAt))
	return nil
}

// Invalidate implements oauth.TokenStore, removing the client's entry and
// its directory. Absent entries are not an error.
func (s *DiskStore) Invalidate(clientName string) error {
	lock := s.clientLock(clientName)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.tokenPath(clientName)); err != nil && !os.IsNotExist(err) {
		return &oauth.CacheError{ClientName: clientName, Op: "invalidate", Err: err}
	}
	// Best effort; the directory may hold nothing else.
	_ = os.Remove(s.clientDir(clientName))
	return nil
}

// Sweep deletes entries whose stored_at header timestamp is older than
// RetentionWindow. Token expiry is irrelevant here: retention bounds how
// long a dormant credential may survive on disk at all. Unreadable headers
// are skipped with a warning; Get reports them properly on access.
func (s *DiskStore) Sweep() {
	cutoff := s.now().Add(-RetentionWindow)

	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Warn("Retention sweep could not list cache root", zap.Error(err))
		return
	}

	swept := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.root, entry.Name(), tokenFileName)
		storedAt, err := readStoredAt(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("Retention sweep skipping unreadable entry",
					zap.String("dir", entry.Name()), zap.Error(err))
			}
			continue
		}
		if storedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Retention sweep failed to delete entry",
				zap.String("dir", entry.Name()), zap.Error(err))
			continue
		}
		_ = os.Remove(filepath.Join(s.root, entry.Name()))
		swept++
	}

	if swept > 0 {
		s.logger.Info("Retention sweep deleted stale entries",
			zap.Int("deleted", swept),
			zap.Duration("retention", RetentionWindow))
	}
}

// clientLock returns the mutex serializing disk I/O for one client.
func (s *DiskStore) clientLock(clientName string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[clientName]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[clientName] = lock
	}
	return lock
}

// clientDir maps a client name to its cache directory. Names that survive
// sanitization unchanged map directly; anything else gets a short content
// hash appended so distinct names cannot collide.
func (s *DiskStore) clientDir(clientName string) string {
	sanitized := unsafeNameChars.ReplaceAllString(clientName, "_")
	if sanitized != clientName {
		sum := sha256.Sum256([]byte(clientName))
		sanitized = fmt.Sprintf("%s_%x", sanitized, sum[:8])
	}
	return filepath.Join(s.root, sanitized)
}

func (s *DiskStore) tokenPath(clientName string) string {
	return filepath.Join(s.clientDir(clientName), tokenFileName)
}

// clientKey derives the per-client encryption key from the master key.
func (s *DiskStore) clientKey(clientName string) ([]byte, error) {
	master, err := s.keys.MasterKey()
	if err != nil {
		return nil, err
	}
	kdf := hkdf.New(sha256.New, master, nil, []byte("authkit-cache:"+clientName))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return key, nil
}

// encrypt seals a record into the on-disk format: cleartext header
// followed by nonce and ciphertext, with the header as associated data.
func (s *DiskStore) encrypt(clientName string, record *tokenRecord, storedAt time.Time) ([]byte, error) {
	plaintext, err := record.marshal()
	if err != nil {
		return nil, err
	}

	key, err := s.clientKey(clientName)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	header := make([]byte, headerSize)
	copy(header, fileMagic[:])
	header[4] = formatVersion
	binary.BigEndian.PutUint64(header[5:], uint64(storedAt.Unix()))

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, header...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, header)
	return out, nil
}

// decrypt reverses encrypt, validating magic, version, and the AEAD tag.
func (s *DiskStore) decrypt(clientName string, data []byte) (*tokenRecord, error) {
	key, err := s.clientKey(clientName)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	if len(data) < headerSize+aead.NonceSize() {
		return nil, fmt.Errorf("cache entry truncated")
	}
	header := data[:headerSize]
	if [4]byte(header[:4]) != fileMagic {
		return nil, fmt.Errorf("cache entry has wrong magic")
	}
	if header[4] != formatVersion {
		return nil, fmt.Errorf("unsupported cache format version %d", header[4])
	}

	nonce := data[headerSize : headerSize+aead.NonceSize()]
	ciphertext := data[headerSize+aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, fmt.Errorf("cache entry failed authentication: %w", err)
	}

	record := &tokenRecord{}
	if err := record.unmarshal(plaintext); err != nil {
		return nil, fmt.Errorf("cache entry holds malformed record: %w", err)
	}
	return record, nil
}

// readStoredAt parses only the cleartext header of an entry, so the sweep
// never needs key material.
func readStoredAt(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return time.Time{}, fmt.Errorf("short header: %w", err)
	}
	if [4]byte(header[:4]) != fileMagic {
		return time.Time{}, fmt.Errorf("wrong magic")
	}
	if header[4] != formatVersion {
		return time.Time{}, fmt.Errorf("unsupported format version %d", header[4])
	}
	return time.Unix(int64(binary.BigEndian.Uint64(header[5:])), 0), nil
}
