// Package credential keeps secrets such as the admin token in the OS keyring.
package credential

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/hpungsan/careerbridge/internal/errors"
)

const serviceName = "careerbridge"

// Store is a kv.Store over a keyring. Values are opaque bytes.
type Store struct {
	ring keyring.Keyring
}

// Open returns the system keyring, falling back to an encrypted file under
// baseDir/credentials when no OS keyring is available.
func Open(baseDir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(baseDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("careerbridge-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// OpenFile uses only the encrypted file backend in dir.
func OpenFile(dir, password string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      serviceName,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(password),
	})
	if err != nil {
		return nil, fmt.Errorf("opening file keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	item, err := s.ring.Get(key)
	if stderrors.Is(err, keyring.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(fmt.Errorf("getting credential %q: %w", key, err))
	}
	return item.Data, true, nil
}

func (s *Store) Save(_ context.Context, key string, value []byte) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  value,
		Label: serviceName + " " + key,
	})
	if err != nil {
		return errors.NewInternal(fmt.Errorf("setting credential %q: %w", key, err))
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.ring.Remove(key)
	if err != nil && !stderrors.Is(err, keyring.ErrKeyNotFound) {
		return errors.NewInternal(fmt.Errorf("deleting credential %q: %w", key, err))
	}
	return nil
}
