// Package config loads server configuration from YAML and environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level configuration, corresponding to nerdsmedia.yml.
type Config struct {
	Addr           string `yaml:"addr" koanf:"addr"`
	DataDir        string `yaml:"data_dir" koanf:"data_dir"`
	StorePath      string `yaml:"store_path" koanf:"store_path"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" koanf:"max_upload_bytes"`
	SiteTitle      string `yaml:"site_title" koanf:"site_title"`
	BaseURL        string `yaml:"base_url" koanf:"base_url"`
}

// DefaultConfig returns the built-in defaults. MaxUploadBytes of zero
// means uploads are not size-limited.
func DefaultConfig() *Config {
	return &Config{
		Addr:      ":8080",
		DataDir:   "data",
		StorePath: "data/nerdsmedia.db",
		SiteTitle: "NerdsMedia",
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (NERDSMEDIA_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: NERDSMEDIA_ADDR -> addr, etc.
	if err := k.Load(env.Provider("NERDSMEDIA_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "NERDSMEDIA_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.StorePath == "" {
		return fmt.Errorf("store_path is required")
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must be non-negative")
	}
	return nil
}
