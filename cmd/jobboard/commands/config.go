package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/app"
)

// envPrefix is stripped from environment variables during config loading (e.g., JOBBOARD_API__BASE_URL → api.base_url)
const envPrefix = "JOBBOARD_"

// configCategory marks the flags that map onto app.Config. It also groups them in --help.
const configCategory = "Config"

// configSource is one layer of configuration.
type configSource struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

// configSources returns the layers in ascending precedence: config file → environment variables → CLI flags.
func configSources(configPath string, cmd *cli.Command, environFunc func() []string) []configSource {
	var sources []configSource

	if configPath != "" {
		sources = append(sources, configSource{"config file", file.Provider(configPath), toml.Parser()})
	}

	sources = append(sources, configSource{"environment variables", env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), value
		},
		EnvironFunc: environFunc,
	}), nil})

	if cmd != nil {
		sources = append(sources, configSource{"CLI flags", confmap.Provider(configFlagValues(cmd), "."), nil})
	}

	return sources
}

// loadConfig merges all sources, then applies defaults and validates.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")
	for _, src := range configSources(configPath, cmd, environFunc) {
		if err := k.Load(src.provider, src.parser); err != nil {
			return nil, fmt.Errorf("loading %s: %w", src.name, err)
		}
	}

	config := &app.Config{}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// envKey maps JOBBOARD_API__BASE_URL to api.base_url.
func envKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, envPrefix), "__", "."))
}

// flagKey maps --api--base-url to api.base_url and --log-level to log_level.
func flagKey(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "--", "."), "-", "_")
}

// configFlagValues collects the explicitly set flags of configCategory from cmd and its parents.
// Unset flags are skipped so they do not override earlier sources with their defaults.
func configFlagValues(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	for _, c := range cmd.Lineage() {
		for _, f := range c.Flags {
			cf, ok := f.(cli.CategorizableFlag)
			if !ok || cf.GetCategory() != configCategory {
				continue
			}
			name := f.Names()[0]
			key := flagKey(name)
			if _, seen := values[key]; seen || !cmd.IsSet(name) {
				continue
			}
			if value := cmd.Value(name); value != nil {
				values[key] = value
			}
		}
	}

	return values
}
