package credstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// keySalt is fixed so that every build with the same passphrase derives the same key.
const keySalt = "jobboard-cli/credstore/v1"

// Argon2id parameters for the one-time key derivation.
const (
	kdfTime    = 2
	kdfMemory  = 19 * 1024
	kdfThreads = 1
)

var (
	// ErrMalformed is returned when a ciphertext is not valid base64 or is too short.
	ErrMalformed = errors.New("credstore: malformed ciphertext")
	// ErrDecrypt is returned when authentication fails (wrong key, wrong entry name or tampering).
	ErrDecrypt = errors.New("credstore: decryption failed")
)

// Cipher seals and opens strings under a single passphrase-derived key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the encryption key from passphrase. An empty passphrase is accepted.
func NewCipher(passphrase string) (*Cipher, error) {
	key := argon2.IDKey([]byte(passphrase), []byte(keySalt), kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating aead: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext bound to associatedData and returns base64(nonce || box).
func (c *Cipher) Encrypt(plaintext string, associatedData []byte) (string, error) {
	nonceSize := c.aead.NonceSize()
	buf := make([]byte, nonceSize, nonceSize+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := c.aead.Seal(buf, buf[:nonceSize], []byte(plaintext), associatedData)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt with the same associatedData.
func (c *Cipher) Decrypt(ciphertext string, associatedData []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", ErrMalformed
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], associatedData)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}
