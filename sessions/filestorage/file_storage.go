package filestorage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/sessions"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	_ sessions.Storage = (*FileStorage)(nil)

	validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// FileStorage keeps one file per key inside a directory. When a secret key is set the
// files are sealed with NaCl secretbox, since they hold refresh tokens.
type FileStorage struct {
	dir  string
	key  *[32]byte
	lock sync.Mutex
}

// Option defines a function type to modify the FileStorage instance.
type Option func(*FileStorage) error

// WithHexKey seals stored values with a 32 byte key given as 64 hex characters.
// An empty string leaves values unsealed.
func WithHexKey(hexKey string) Option {
	return func(s *FileStorage) error {
		if hexKey == "" {
			return nil
		}
		b, err := hex.DecodeString(hexKey)
		if err != nil {
			return fmt.Errorf("[filestorage] storage key hex decode: %w", err)
		}
		if len(b) != 32 {
			return fmt.Errorf("[filestorage] storage key must be 32 bytes, got %d", len(b))
		}
		s.key = new([32]byte)
		copy(s.key[:], b)
		return nil
	}
}

// New creates the directory if needed.
func New(dir string, options ...Option) (*FileStorage, error) {
	s := &FileStorage{dir: dir}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("[filestorage] mkdir %s: %w", dir, err)
	}
	return s, nil
}

func (s *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[filestorage] read %s: %w", key, err)
	}

	plain, err := s.open(blob)
	if err != nil {
		return "", false, fmt.Errorf("[filestorage] open %s: %w", key, err)
	}
	return string(plain), true, nil
}

func (s *FileStorage) Set(_ context.Context, key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	blob, err := s.seal([]byte(value))
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	// Write then rename so a crash never leaves a half written snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("[filestorage] write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("[filestorage] rename %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[filestorage] delete %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("[filestorage] invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStorage) seal(plain []byte) ([]byte, error) {
	if s.key == nil {
		return plain, nil
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("[filestorage] nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, s.key), nil
}

func (s *FileStorage) open(blob []byte) ([]byte, error) {
	if s.key == nil {
		return blob, nil
	}
	if len(blob) < nonceSize+secretbox.Overhead {
		return nil, errors.Wrapf(errors.ErrStorageCorrupt, "sealed value too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])
	plain, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, s.key)
	if !ok {
		return nil, errors.Wrapf(errors.ErrStorageCorrupt, "sealed value failed authentication")
	}
	return plain, nil
}
