package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/app"
)

// runWithConfig runs the real command tree with a probe subcommand that captures the loaded config.
func runWithConfig(t *testing.T, environ []string, args ...string) *app.Config {
	t.Helper()

	var got *app.Config
	root := newRootCommand()
	root.Commands = append(root.Commands, &cli.Command{
		Name:  "probe",
		Flags: []cli.Flag{&cli.StringFlag{Name: "email"}},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd.String("config"), cmd, func() []string { return environ })
			if err != nil {
				return err
			}
			got = cfg
			return nil
		},
	})
	root.Writer = &bytes.Buffer{}

	require.NoError(t, root.Run(t.Context(), append([]string{"jobboard"}, args...)))
	require.NotNil(t, got)
	return got
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := runWithConfig(t, nil, "--storage--type", "memory", "probe")

	assert.Equal(t, app.DefaultConfigAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, app.StorageTypeMemory, cfg.Storage.Type)
	assert.Equal(t, app.DefaultConfigUserAgent, cfg.API.UserAgent)
	assert.Zero(t, cfg.API.Timeout)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_format = "json"

[api]
base_url = "https://file.example"
timeout = "10s"

[storage]
type = "memory"
`), 0o600))

	t.Run("file", func(t *testing.T) {
		cfg := runWithConfig(t, nil, "--config", path, "probe")
		assert.Equal(t, "https://file.example", cfg.API.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.API.Timeout)
		assert.Equal(t, app.LogFormatJSON, cfg.LogFormat)
	})

	t.Run("env over file", func(t *testing.T) {
		env := []string{"JOBBOARD_API__BASE_URL=https://env.example", "UNRELATED=1"}
		cfg := runWithConfig(t, env, "--config", path, "probe")
		assert.Equal(t, "https://env.example", cfg.API.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	})

	t.Run("flag over env", func(t *testing.T) {
		env := []string{"JOBBOARD_API__BASE_URL=https://env.example"}
		cfg := runWithConfig(t, env, "--config", path, "--api--base-url", "https://flag.example", "probe")
		assert.Equal(t, "https://flag.example", cfg.API.BaseURL)
	})
}

func TestLoadConfig_SkipsCommandFlags(t *testing.T) {
	cfg := runWithConfig(t, nil, "--storage--type", "memory", "probe", "--email", "a@example.com")
	assert.Equal(t, app.StorageTypeMemory, cfg.Storage.Type)
}

func TestLoadConfig_Invalid(t *testing.T) {
	root := &cli.Command{
		Name:  "jobboard",
		Flags: []cli.Flag{&cli.StringFlag{Name: "storage--type"}},
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := loadConfig("", cmd, func() []string { return nil })
			return err
		},
	}
	err := root.Run(t.Context(), []string{"jobboard", "--storage--type", "floppy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestConfigFlagValues(t *testing.T) {
	var got map[string]any
	root := &cli.Command{
		Name: "jobboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Category: configCategory},
			&cli.StringFlag{Name: "api--base-url", Category: configCategory},
			&cli.StringFlag{Name: "api--user-agent", Category: configCategory},
			&cli.BoolFlag{Name: "json"},
		},
		Commands: []*cli.Command{{
			Name: "login",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "storage--keyring-service", Category: configCategory},
				&cli.StringFlag{Name: "email"},
			},
			Action: func(_ context.Context, cmd *cli.Command) error {
				got = configFlagValues(cmd)
				return nil
			},
		}},
	}
	require.NoError(t, root.Run(t.Context(), []string{"jobboard",
		"--log-level", "debug",
		"--api--base-url", "https://x.example",
		"--json",
		"login",
		"--storage--keyring-service", "svc",
		"--email", "a@example.com",
	}))

	assert.Equal(t, map[string]any{
		"log_level":               "debug",
		"api.base_url":            "https://x.example",
		"storage.keyring_service": "svc",
	}, got)
}

func TestConfigKeys(t *testing.T) {
	assert.Equal(t, "api.base_url", envKey("JOBBOARD_API__BASE_URL"))
	assert.Equal(t, "log_level", envKey("JOBBOARD_LOG_LEVEL"))
	assert.Equal(t, "api.base_url", flagKey("api--base-url"))
	assert.Equal(t, "storage.keyring_service", flagKey("storage--keyring-service"))
}

func TestRootConfigFlags(t *testing.T) {
	var keys []string
	for _, f := range newRootCommand().Flags {
		if cf, ok := f.(cli.CategorizableFlag); ok && cf.GetCategory() == configCategory {
			keys = append(keys, flagKey(f.Names()[0]))
		}
	}

	assert.ElementsMatch(t, []string{
		"log_level", "log_format", "telemetry.exporter",
		"api.base_url", "api.timeout", "api.user_agent",
		"storage.type", "storage.file", "storage.keyring_service",
	}, keys)
}

func TestSplitUser(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		email    string
		password string
		role     string
		wantErr  bool
	}{
		{name: "plain", entry: "a@example.com:secret:employee", email: "a@example.com", password: "secret", role: "employee"},
		{name: "colon in password", entry: "a@example.com:se:cr:et:admin", email: "a@example.com", password: "se:cr:et", role: "admin"},
		{name: "missing role", entry: "a@example.com:secret", wantErr: true},
		{name: "empty password", entry: "a@example.com::employer", wantErr: true},
		{name: "no separators", entry: "a@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, password, role, err := splitUser(tt.entry)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, email)
			assert.Equal(t, tt.password, password)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestIDArg(t *testing.T) {
	tests := []struct {
		args    []string
		want    int
		wantErr string
	}{
		{args: []string{"42"}, want: 42},
		{args: nil, wantErr: "missing POST_ID"},
		{args: []string{"abc"}, wantErr: `invalid POST_ID "abc"`},
		{args: []string{"0"}, wantErr: `invalid POST_ID "0"`},
	}

	for _, tt := range tests {
		var got int
		var gotErr error
		root := &cli.Command{
			Name: "jobboard",
			Action: func(_ context.Context, cmd *cli.Command) error {
				got, gotErr = idArg(cmd, "POST_ID")
				return nil
			},
		}
		require.NoError(t, root.Run(t.Context(), append([]string{"jobboard"}, tt.args...)))

		if tt.wantErr != "" {
			require.Error(t, gotErr)
			assert.Contains(t, gotErr.Error(), tt.wantErr)
			continue
		}
		require.NoError(t, gotErr)
		assert.Equal(t, tt.want, got)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, table(&buf, []string{"ID", "TITLE"}, [][]string{{"1", "Go developer"}, {"22", "SRE"}}))
	assert.Equal(t, "ID  TITLE\n1   Go developer\n22  SRE\n", buf.String())
}
