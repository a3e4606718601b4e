package credstore_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/jobboard-cli/internal/credstore"
	"github.com/florianilch/jobboard-cli/internal/kvstore"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := credstore.NewCipher("build-time-key")
	require.NoError(t, err)

	inputs := []string{
		"",
		"secret123",
		"a@b.com",
		"пароль с пробелами",
		strings.Repeat("x", 4096),
		"\x00binary\xff",
	}

	for _, in := range inputs {
		sealed, err := c.Encrypt(in, []byte("userPassword"))
		require.NoError(t, err)
		if in != "" {
			assert.NotContains(t, sealed, in)
		}

		out, err := c.Decrypt(sealed, []byte("userPassword"))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func FuzzCipherRoundTrip(f *testing.F) {
	c, err := credstore.NewCipher("build-time-key")
	require.NoError(f, err)

	for _, seed := range []string{
		"",
		"secret123",
		"a@b.com",
		"пароль с пробелами",
		strings.Repeat("x", 4096),
		"\x00binary\xff",
	} {
		f.Add(seed, "userPassword")
	}

	f.Fuzz(func(t *testing.T, in, key string) {
		sealed, err := c.Encrypt(in, []byte(key))
		require.NoError(t, err)

		out, err := c.Decrypt(sealed, []byte(key))
		require.NoError(t, err)
		assert.Equal(t, in, out)

		_, err = c.Decrypt(sealed, []byte(key+"x"))
		assert.Error(t, err, "ciphertext is bound to its entry name")
	})
}

func TestCipherUsesFreshNonces(t *testing.T) {
	c, err := credstore.NewCipher("k")
	require.NoError(t, err)

	first, err := c.Encrypt("same", nil)
	require.NoError(t, err)
	second, err := c.Encrypt("same", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCipherRejects(t *testing.T) {
	c, err := credstore.NewCipher("right")
	require.NoError(t, err)
	other, err := credstore.NewCipher("wrong")
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret123", []byte("userPassword"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		cipher  *credstore.Cipher
		input   string
		ad      string
		wantErr error
	}{
		{name: "wrong key", cipher: other, input: sealed, ad: "userPassword", wantErr: credstore.ErrDecrypt},
		{name: "wrong entry name", cipher: c, input: sealed, ad: "userEmail", wantErr: credstore.ErrDecrypt},
		{name: "not base64", cipher: c, input: "%%%", ad: "userPassword", wantErr: credstore.ErrMalformed},
		{name: "too short", cipher: c, input: "AAAA", ad: "userPassword", wantErr: credstore.ErrMalformed},
		{name: "plaintext left in store", cipher: c, input: "secret123", ad: "userPassword", wantErr: credstore.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cipher.Decrypt(tt.input, []byte(tt.ad))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	c, err := credstore.NewCipher("k")
	require.NoError(t, err)
	store := credstore.New(kv, c)

	_, ok, err := store.GetItem(ctx, "userEmail")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetItem(ctx, "userEmail", "a@b.com"))

	raw, err := kv.Get(ctx, "userEmail")
	require.NoError(t, err)
	assert.NotEqual(t, "a@b.com", raw, "plaintext must not reach the medium")

	value, ok, err := store.GetItem(ctx, "userEmail")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", value)

	require.NoError(t, store.RemoveItem(ctx, "userEmail"))
	require.NoError(t, store.RemoveItem(ctx, "userEmail"))

	_, ok, err = store.GetItem(ctx, "userEmail")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePurgesCorruptedEntries(t *testing.T) {
	ctx := context.Background()

	writer, err := credstore.NewCipher("old-key")
	require.NoError(t, err)
	reader, err := credstore.NewCipher("new-key")
	require.NoError(t, err)

	tests := []struct {
		name  string
		setup func(t *testing.T, kv *kvstore.MemoryStore)
	}{
		{
			name: "garbage",
			setup: func(t *testing.T, kv *kvstore.MemoryStore) {
				require.NoError(t, kv.Set(ctx, "userPassword", "not-a-ciphertext"))
			},
		},
		{
			name: "different key",
			setup: func(t *testing.T, kv *kvstore.MemoryStore) {
				require.NoError(t, credstore.New(kv, writer).SetItem(ctx, "userPassword", "secret123"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemoryStore()
			tt.setup(t, kv)

			store := credstore.New(kv, reader)

			value, ok, err := store.GetItem(ctx, "userPassword")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, value)

			_, err = kv.Get(ctx, "userPassword")
			require.ErrorIs(t, err, kvstore.ErrNotFound, "corrupted entry must be deleted")
		})
	}
}
