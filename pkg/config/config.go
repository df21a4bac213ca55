package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFile is the optional project-local configuration file.
const ConfigFile = "depscope.toml"

// EnvPrefix namespaces environment overrides, e.g. DEPSCOPE_PORT=9090.
const EnvPrefix = "DEPSCOPE_"

// Config holds all settings for a depscope run.
type Config struct {
	// Project is the root of the source tree to analyze.
	Project string `koanf:"project"`
	// GraphFile, when set, is a pre-computed dependency graph JSON
	// document used instead of analyzing Project.
	GraphFile string `koanf:"graph"`

	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	OpenBrowser bool   `koanf:"open"`

	// Watch re-analyzes the project when source files change. It has no
	// effect when the graph comes from GraphFile.
	Watch      bool `koanf:"watch"`
	DebounceMs int  `koanf:"debounce"`

	Verbosity string `koanf:"verbosity"`
	LogFormat string `koanf:"logformat"`
}

// Load layers configuration from defaults, depscope.toml, environment
// variables, and flags. Priority: Flags > Env > File > Defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"project":   ".",
		"graph":     "",
		"host":      "127.0.0.1",
		"port":      8080,
		"open":      true,
		"watch":     true,
		"debounce":  400,
		"verbosity": "info",
		"logformat": "compact",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The config file is optional; a missing file is not an error.
	_ = k.Load(file.Provider(ConfigFile), toml.Parser())

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.DebounceMs < 0 {
		return nil, fmt.Errorf("invalid debounce %dms", cfg.DebounceMs)
	}

	return &cfg, nil
}

// Flags returns the flag set understood by Load. Callers parse it and
// pass it back so flag values override the other layers.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("depscope", pflag.ContinueOnError)
	f.String("project", ".", "path to the project root to analyze")
	f.String("graph", "", "path to a pre-computed dependency graph JSON file")
	f.String("host", "127.0.0.1", "address to bind the web server to")
	f.Int("port", 8080, "port for the web server")
	f.Bool("open", true, "open the viewer in a browser on startup")
	f.Bool("watch", true, "re-analyze when project files change")
	f.Int("debounce", 400, "watch debounce quiet period in milliseconds")
	f.String("verbosity", "info", "log level: debug, info, warn, error")
	f.String("logformat", "compact", "log output format: compact or json")
	return f
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
