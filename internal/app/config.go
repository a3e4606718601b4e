package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/jobboard-cli/internal/kvstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// StorageType represents the media supported for session state.
type StorageType string

const (
	StorageTypeFile    StorageType = "file"
	StorageTypeKeyring StorageType = "keyring"
	StorageTypeMemory  StorageType = "memory"
)

// EncryptionKey is the build-time credential encryption key, set with
// -ldflags "-X github.com/florianilch/jobboard-cli/internal/app.EncryptionKey=...".
// crypto.key overrides it.
var EncryptionKey string

// Default configuration values
const (
	DefaultConfigLogFormat         = LogFormatText
	DefaultConfigTelemetryExporter = "none"
	DefaultConfigAPIBaseURL        = "http://127.0.0.1:8000"
	DefaultConfigUserAgent         = "jobboard-cli"
	DefaultConfigStorage           = StorageTypeFile
	DefaultConfigKeyringService    = "jobboard-cli"
	DefaultConfigDevServerHost     = "127.0.0.1"
	DefaultConfigDevServerPort     = 8000
	DefaultConfigShutdownTimeout   = 5 * time.Second
)

// TelemetryConfig selects where log records are exported besides stderr.
type TelemetryConfig struct {
	Exporter string `json:"exporter" validate:"oneof=none stdout otlphttp otlpgrpc"`
}

// APIConfig holds job-board API settings.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
	// Timeout bounds a whole call including renewal and replay. Zero disables it.
	Timeout   time.Duration `json:"timeout" validate:"gte=0"`
	UserAgent string        `json:"user_agent"`
}

// StorageConfig describes where session state is kept.
type StorageConfig struct {
	Type StorageType `json:"type" validate:"required,oneof=file keyring memory"`

	// Type-specific settings
	File           string `json:"file,omitempty"`            // For file storage: path to state file
	KeyringService string `json:"keyring_service,omitempty"` // For keyring storage: service name
}

// NewStore creates the key-value store for session state.
func (s *StorageConfig) NewStore() (kvstore.Store, error) {
	switch s.Type {
	case StorageTypeFile:
		return kvstore.NewFileStore(s.File)
	case StorageTypeKeyring:
		return kvstore.NewKeyringStore(s.KeyringService)
	case StorageTypeMemory:
		return kvstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Type)
	}
}

// CryptoConfig holds the credential encryption key.
type CryptoConfig struct {
	Key string `json:"key"`
}

// DevServerConfig holds settings for the local development API.
type DevServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"`
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level      `json:"log_level"`
	LogFormat LogFormat       `json:"log_format" validate:"oneof=text json"`
	Telemetry TelemetryConfig `json:"telemetry"`
	API       APIConfig       `json:"api"`
	Storage   StorageConfig   `json:"storage"`
	Crypto    CryptoConfig    `json:"crypto"`
	DevServer DevServerConfig `json:"devserver"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = DefaultConfigTelemetryExporter
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultConfigUserAgent
	}
	if c.Storage.Type == "" {
		c.Storage.Type = DefaultConfigStorage
	}
	if c.Crypto.Key == "" {
		c.Crypto.Key = EncryptionKey
	}
	if c.DevServer.Host == "" {
		c.DevServer.Host = DefaultConfigDevServerHost
	}
	if c.DevServer.Port == 0 {
		c.DevServer.Port = DefaultConfigDevServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}

	// Dynamic defaults based on storage type
	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("storage.file required (auto-detect failed: %w)", err)
			}
			c.Storage.File = filepath.Join(configDir, "jobboard-cli", "session.json")
		}
	case StorageTypeKeyring:
		if c.Storage.KeyringService == "" {
			c.Storage.KeyringService = DefaultConfigKeyringService
		}
	case StorageTypeMemory:
		// nothing to locate
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
// An empty encryption key is accepted; callers warn about it.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.File == "" {
			return errors.New("file path required for file storage")
		}
	case StorageTypeKeyring:
		if c.Storage.KeyringService == "" {
			return errors.New("keyring_service required for keyring storage")
		}
	}

	return nil
}
