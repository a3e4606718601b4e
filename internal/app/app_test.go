package app

import (
	"context"
	"net"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/jobboard-cli/internal/devserver"
	"github.com/florianilch/jobboard-cli/internal/jobboard"
	"github.com/florianilch/jobboard-cli/internal/kvstore"
)

func TestApplyDefaults(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
	assert.Equal(t, DefaultConfigAPIBaseURL, cfg.API.BaseURL)
	assert.Zero(t, cfg.API.Timeout, "no timeout unless configured")
	assert.Equal(t, StorageTypeFile, cfg.Storage.Type)
	assert.Equal(t, "session.json", filepath.Base(cfg.Storage.File))
	assert.Equal(t, DefaultConfigShutdownTimeout, cfg.Shutdown.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaultsKeyring(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Type: StorageTypeKeyring}}
	require.NoError(t, cfg.ApplyDefaults())
	assert.Equal(t, DefaultConfigKeyringService, cfg.Storage.KeyringService)
	assert.Empty(t, cfg.Storage.File)
}

func TestApplyDefaultsUsesBuildKey(t *testing.T) {
	previous := EncryptionKey
	EncryptionKey = "from-ldflags"
	t.Cleanup(func() { EncryptionKey = previous })

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "from-ldflags", cfg.Crypto.Key)

	cfg = &Config{Crypto: CryptoConfig{Key: "explicit"}}
	require.NoError(t, cfg.ApplyDefaults())
	assert.Equal(t, "explicit", cfg.Crypto.Key)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }},
		{name: "bad exporter", mutate: func(c *Config) { c.Telemetry.Exporter = "zipkin" }},
		{name: "bad base url", mutate: func(c *Config) { c.API.BaseURL = "not a url" }},
		{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -time.Second }},
		{name: "bad storage", mutate: func(c *Config) { c.Storage.Type = "env" }},
		{name: "file without path", mutate: func(c *Config) { c.Storage.File = "" }},
		{name: "keyring without service", mutate: func(c *Config) {
			c.Storage.Type = StorageTypeKeyring
			c.Storage.KeyringService = ""
		}},
		{name: "bad host", mutate: func(c *Config) { c.DevServer.Host = "not_a_host!" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewStore(t *testing.T) {
	file := StorageConfig{Type: StorageTypeFile, File: filepath.Join(t.TempDir(), "s.json")}
	store, err := file.NewStore()
	require.NoError(t, err)
	assert.IsType(t, &kvstore.FileStore{}, store)

	memory := StorageConfig{Type: StorageTypeMemory}
	store, err = memory.NewStore()
	require.NoError(t, err)
	assert.IsType(t, &kvstore.MemoryStore{}, store)

	unknown := StorageConfig{Type: "env"}
	_, err = unknown.NewStore()
	require.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(&Config{}, nil)
	require.Error(t, err)
}

func TestClientWiring(t *testing.T) {
	dev := devserver.New()
	_, err := dev.AddUser("a@b.com", "secret123", "Ada", "Lovelace", "employee")
	require.NoError(t, err)
	srv := httptest.NewServer(dev)
	t.Cleanup(srv.Close)

	cfg := &Config{
		API:     APIConfig{BaseURL: srv.URL},
		Storage: StorageConfig{Type: StorageTypeMemory},
		Crypto:  CryptoConfig{Key: "k"},
	}
	require.NoError(t, cfg.ApplyDefaults())

	var notified int
	a, err := New(cfg, func(context.Context) { notified++ })
	require.NoError(t, err)

	client, err := a.Client()
	require.NoError(t, err)
	again, err := a.Client()
	require.NoError(t, err)
	assert.Same(t, client, again, "the stack is built once")

	ctx := context.Background()
	_, err = client.Login(ctx, jobboard.Credentials{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)

	dev.ExpireTokens()
	_, err = client.CurrentUser(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Logout(ctx))
	_, err = client.CurrentUser(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, notified)
	assert.True(t, a.LoginPrompt().AtLogin())

	sess, err := a.Session()
	require.NoError(t, err)
	assert.False(t, sess.Authenticated(ctx))
}

func freePort(t *testing.T) uint16 {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return uint16(port)
}

func TestServeDev(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Storage = StorageConfig{Type: StorageTypeMemory}
	cfg.DevServer.Port = freePort(t)

	a, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeDev(ctx, devserver.New()) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", a.DevAddress())
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeDev did not return after cancellation")
	}
}

func TestServeDevPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	cfg, err := Default()
	require.NoError(t, err)
	cfg.Storage = StorageConfig{Type: StorageTypeMemory}
	cfg.DevServer.Port = uint16(l.Addr().(*net.TCPAddr).Port)

	a, err := New(cfg, nil)
	require.NoError(t, err)

	err = a.ServeDev(context.Background(), devserver.New())
	require.Error(t, err)
}
