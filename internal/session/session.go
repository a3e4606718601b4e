// Package session holds the client's authentication state: the bearer token pair, the
// cached user role and the encrypted login credentials used for silent renewal.
//
// A Session is created once at startup and passed to every component that needs it.
// It is torn down with Clear on logout or when renewal fails for good.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/florianilch/jobboard-cli/internal/credstore"
	"github.com/florianilch/jobboard-cli/internal/kvstore"
)

// Storage keys. Tokens and role are stored in plain text, credentials are encrypted.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserRole     = "userRole"
	KeyUserEmail    = "userEmail"
	KeyUserPassword = "userPassword"
)

// ErrNoCredentials is returned by Credentials when either cached credential is absent.
var ErrNoCredentials = errors.New("session: cached credentials not available")

// TokenPair is the bearer token pair issued by the token endpoint.
type TokenPair struct {
	Access  string
	Refresh string
}

// Session reads and writes session state in a kvstore.Store.
type Session struct {
	kv    kvstore.Store
	creds *credstore.Store

	// writeMu serializes multi-key updates; readers are not blocked.
	writeMu sync.Mutex
}

// New creates a Session over kv. Credentials are sealed with cipher.
func New(kv kvstore.Store, cipher *credstore.Cipher) (*Session, error) {
	if kv == nil {
		return nil, fmt.Errorf("missing key-value store")
	}
	if cipher == nil {
		return nil, fmt.Errorf("missing credential cipher")
	}

	return &Session{
		kv:    kv,
		creds: credstore.New(kv, cipher),
	}, nil
}

// AccessToken returns the current access token, or "" when none is stored.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	return s.plain(ctx, KeyAccessToken)
}

// RefreshToken returns the current refresh token, or "" when none is stored.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	return s.plain(ctx, KeyRefreshToken)
}

// Role returns the cached user role, or "" when none is stored.
func (s *Session) Role(ctx context.Context) (string, error) {
	return s.plain(ctx, KeyUserRole)
}

// Authenticated reports whether an access token is present. It says nothing about
// whether the server still accepts it.
func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.AccessToken(ctx)
	return err == nil && token != ""
}

// SetTokens stores the access token and, when present, the refresh token.
// An empty refresh token leaves the stored one untouched.
func (s *Session) SetTokens(ctx context.Context, pair TokenPair) error {
	if pair.Access == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.kv.Set(ctx, KeyAccessToken, pair.Access); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	if pair.Refresh != "" {
		if err := s.kv.Set(ctx, KeyRefreshToken, pair.Refresh); err != nil {
			return fmt.Errorf("storing refresh token: %w", err)
		}
	}
	return nil
}

// SetRole caches the authenticated user's role.
func (s *Session) SetRole(ctx context.Context, role string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if role == "" {
		return s.kv.Delete(ctx, KeyUserRole)
	}
	return s.kv.Set(ctx, KeyUserRole, role)
}

// SaveCredentials encrypts and caches the login email and password.
func (s *Session) SaveCredentials(ctx context.Context, email, password string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.creds.SetItem(ctx, KeyUserEmail, email); err != nil {
		return err
	}
	return s.creds.SetItem(ctx, KeyUserPassword, password)
}

// UpdatePassword replaces the cached password after a successful password change.
func (s *Session) UpdatePassword(ctx context.Context, password string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.creds.SetItem(ctx, KeyUserPassword, password)
}

// Credentials returns the decrypted login email and password.
// Returns ErrNoCredentials if either entry is missing or could not be decrypted.
func (s *Session) Credentials(ctx context.Context) (email, password string, err error) {
	email, ok, err := s.creds.GetItem(ctx, KeyUserEmail)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrNoCredentials
	}

	password, ok, err = s.creds.GetItem(ctx, KeyUserPassword)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrNoCredentials
	}

	return email, password, nil
}

// Clear removes tokens, role and cached credentials. Every key is attempted even if
// an earlier delete fails.
func (s *Session) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUserRole} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", key, err))
		}
	}
	for _, key := range []string{KeyUserEmail, KeyUserPassword} {
		if err := s.creds.RemoveItem(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Session) plain(ctx context.Context, key string) (string, error) {
	value, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}
