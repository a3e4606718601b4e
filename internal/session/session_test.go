package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/jobboard-cli/internal/credstore"
	"github.com/florianilch/jobboard-cli/internal/kvstore"
	"github.com/florianilch/jobboard-cli/internal/session"
)

func newSession(t *testing.T) (*session.Session, *kvstore.MemoryStore) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	cipher, err := credstore.NewCipher("test-key")
	require.NoError(t, err)
	s, err := session.New(kv, cipher)
	require.NoError(t, err)
	return s, kv
}

func TestNewRequiresDependencies(t *testing.T) {
	cipher, err := credstore.NewCipher("k")
	require.NoError(t, err)

	_, err = session.New(nil, cipher)
	require.Error(t, err)
	_, err = session.New(kvstore.NewMemoryStore(), nil)
	require.Error(t, err)
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	s, kv := newSession(t)

	assert.False(t, s.Authenticated(ctx))

	require.NoError(t, s.SetTokens(ctx, session.TokenPair{Access: "a1", Refresh: "r1"}))
	assert.True(t, s.Authenticated(ctx))

	// Refresh is kept when the renewal response omits it.
	require.NoError(t, s.SetTokens(ctx, session.TokenPair{Access: "a2"}))

	access, err := s.AccessToken(ctx)
	require.NoError(t, err)
	refresh, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r1", refresh)

	raw, err := kv.Get(ctx, session.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a2", raw, "tokens are stored in plain text")

	require.Error(t, s.SetTokens(ctx, session.TokenPair{}))
}

func TestRole(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)

	require.NoError(t, s.SetRole(ctx, "employer"))
	role, err := s.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, "employer", role)

	require.NoError(t, s.SetRole(ctx, ""))
	role, err = s.Role(ctx)
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	s, kv := newSession(t)

	_, _, err := s.Credentials(ctx)
	require.ErrorIs(t, err, session.ErrNoCredentials)

	require.NoError(t, s.SaveCredentials(ctx, "a@b.com", "secret123"))

	raw, err := kv.Get(ctx, session.KeyUserPassword)
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret123")

	email, password, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
	assert.Equal(t, "secret123", password)

	require.NoError(t, s.UpdatePassword(ctx, "newpass456"))
	_, password, err = s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newpass456", password)
}

func TestCredentialsMissingOneEntry(t *testing.T) {
	ctx := context.Background()
	s, kv := newSession(t)

	require.NoError(t, s.SaveCredentials(ctx, "a@b.com", "secret123"))
	require.NoError(t, kv.Delete(ctx, session.KeyUserEmail))

	_, _, err := s.Credentials(ctx)
	require.ErrorIs(t, err, session.ErrNoCredentials)
}

func TestCredentialsCorrupted(t *testing.T) {
	ctx := context.Background()
	s, kv := newSession(t)

	require.NoError(t, s.SaveCredentials(ctx, "a@b.com", "secret123"))
	require.NoError(t, kv.Set(ctx, session.KeyUserPassword, "tampered"))

	_, _, err := s.Credentials(ctx)
	require.ErrorIs(t, err, session.ErrNoCredentials)

	_, err = kv.Get(ctx, session.KeyUserPassword)
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, kv := newSession(t)

	require.NoError(t, s.SetTokens(ctx, session.TokenPair{Access: "a", Refresh: "r"}))
	require.NoError(t, s.SetRole(ctx, "admin"))
	require.NoError(t, s.SaveCredentials(ctx, "a@b.com", "secret123"))
	require.Equal(t, 5, kv.Len())

	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, 0, kv.Len())
	assert.False(t, s.Authenticated(ctx))

	// Clearing an empty session is fine.
	require.NoError(t, s.Clear(ctx))
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    42,
		"token_type": "access",
		"exp":        exp.Unix(),
		"iat":        exp.Add(-10 * time.Minute).Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	claims, err := session.Inspect(signed)
	require.NoError(t, err)

	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Second)))
}

func TestInspectOpaqueToken(t *testing.T) {
	_, err := session.Inspect("0b6f3c2e-opaque")
	require.Error(t, err)
}
