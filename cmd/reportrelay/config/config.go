// Package config loads reportrelay settings from an optional TOML file and
// the process environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/reportrelay/pkg/upstream"
	"github.com/papercomputeco/reportrelay/relay"
)

// Environment variables read by Load.
const (
	EnvAPIKey      = "AI_API_KEY"
	EnvUpstreamURL = "REPORTRELAY_UPSTREAM_URL"
	EnvModel       = "REPORTRELAY_MODEL"
	EnvListen      = "REPORTRELAY_LISTEN"
)

// Defaults.
const (
	DefaultListen      = ":8080"
	DefaultUpstreamURL = "http://ai.sda.changan.com.cn/api/v1/chat/completions"
	DefaultModel       = "321"
)

// Config is the on-disk configuration.
//
//	listen = ":8080"
//	body_limit = 67108864
//	debug = false
//
//	[upstream]
//	url = "https://llm.example.com/v1/chat/completions"
//	model = "321"
//	timeout = "5m"
//
// The API key belongs in AI_API_KEY; api_key in the file is honored but the
// environment wins.
type Config struct {
	Listen    string   `toml:"listen"`
	BodyLimit int      `toml:"body_limit"`
	Debug     bool     `toml:"debug"`
	Upstream  Upstream `toml:"upstream"`
}

// Upstream is the [upstream] table.
type Upstream struct {
	URL     string        `toml:"url"`
	Model   string        `toml:"model"`
	APIKey  string        `toml:"api_key"`
	Timeout time.Duration `toml:"timeout"`
}

// Load reads path (when non-empty), applies defaults, then overlays the
// environment. A missing API key is not an error.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Listen:    DefaultListen,
		BodyLimit: relay.DefaultBodyLimit,
		Upstream: Upstream{
			URL:   DefaultUpstreamURL,
			Model: DefaultModel,
		},
	}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	if v := getenv(EnvAPIKey); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := getenv(EnvUpstreamURL); v != "" {
		cfg.Upstream.URL = v
	}
	if v := getenv(EnvModel); v != "" {
		cfg.Upstream.Model = v
	}
	if v := getenv(EnvListen); v != "" {
		cfg.Listen = v
	}

	if cfg.BodyLimit <= 0 {
		return nil, fmt.Errorf("body_limit must be positive, got %d", cfg.BodyLimit)
	}
	if cfg.Upstream.Timeout < 0 {
		return nil, fmt.Errorf("upstream timeout must not be negative, got %s", cfg.Upstream.Timeout)
	}

	return cfg, nil
}

// Relay converts the file configuration into the relay server configuration.
func (c *Config) Relay() relay.Config {
	return relay.Config{
		ListenAddr: c.Listen,
		BodyLimit:  c.BodyLimit,
		Upstream: upstream.Config{
			URL:     c.Upstream.URL,
			APIKey:  c.Upstream.APIKey,
			Model:   c.Upstream.Model,
			Timeout: c.Upstream.Timeout,
		},
	}
}
