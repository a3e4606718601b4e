package credstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/florianilch/jobboard-cli/internal/kvstore"
)

// Store persists encrypted values in a kvstore.Store.
type Store struct {
	kv     kvstore.Store
	cipher *Cipher
}

// New creates a Store writing ciphertext to kv.
func New(kv kvstore.Store, cipher *Cipher) *Store {
	return &Store{kv: kv, cipher: cipher}
}

// SetItem encrypts value and stores the ciphertext under key.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	ciphertext, err := s.cipher.Encrypt(value, []byte(key))
	if err != nil {
		return fmt.Errorf("encrypting %s: %w", key, err)
	}

	if err := s.kv.Set(ctx, key, ciphertext); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// GetItem returns the decrypted value stored under key. ok is false when the key is absent
// or its ciphertext could not be decrypted; in the latter case the entry is deleted.
func (s *Store) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	ciphertext, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}

	plaintext, err := s.cipher.Decrypt(ciphertext, []byte(key))
	if err != nil {
		slog.WarnContext(ctx, "purging undecryptable credential", "key", key, "reason", err)
		if delErr := s.kv.Delete(ctx, key); delErr != nil {
			slog.ErrorContext(ctx, "failed to purge credential", "key", key, "error", delErr)
		}
		return "", false, nil
	}

	return plaintext, true, nil
}

// RemoveItem deletes key unconditionally.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}
