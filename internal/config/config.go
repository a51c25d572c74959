// Package config loads the multical YAML configuration file.
//
// Values are resolved in this order: command-line flags, environment
// variables, the configuration file, built-in defaults. Flags are applied by
// the cmd package; this package handles the rest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/teemow/multical/internal/registry"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config is the multical configuration file.
type Config struct {
	Database string         `yaml:"database"`
	Registry RegistryConfig `yaml:"registry"`
	Google   GoogleConfig   `yaml:"google"`
	Server   ServerConfig   `yaml:"server"`
}

type RegistryConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	PrimaryPolicy string        `yaml:"primary_policy"`
	// Refresh is a cron spec for resetting and re-warming the registry.
	// Empty disables the refresher.
	Refresh string `yaml:"refresh"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type ServerConfig struct {
	Transport   string `yaml:"transport"`
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	Yolo        bool   `yaml:"yolo"`
}

// Dir returns the multical configuration directory.
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "multical")
	}
	return filepath.Join(".", ".multical")
}

// DefaultPath returns $MULTICAL_CONFIG or config.yaml in Dir.
func DefaultPath() string {
	if p := os.Getenv("MULTICAL_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: filepath.Join(Dir(), "multical.db"),
		Registry: RegistryConfig{
			TTL:           registry.DefaultTTL,
			PrimaryPolicy: registry.PrimaryFallback.String(),
		},
		Server: ServerConfig{
			Transport:   TransportStdio,
			HTTPAddr:    ":8080",
			MetricsAddr: ":9090",
		},
	}
}

// Load reads the configuration at path, applies environment overrides and
// validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults
// with environment overrides applied.
func LoadOrDefault(configPath string) (*Config, error) {
	config, err := Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		config = Default()
		config.applyEnv()
		if err := config.validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return config, nil
	}
	return config, err
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MULTICAL_DATABASE"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.Google.ClientSecret = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
}

// Validate checks the configuration and fills in defaults for empty values.
// Call it again after applying command-line flags.
func (c *Config) Validate() error {
	return c.validate()
}

func (c *Config) validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Registry.TTL < 0 {
		return fmt.Errorf("registry.ttl cannot be negative")
	}
	if c.Registry.TTL == 0 {
		c.Registry.TTL = registry.DefaultTTL
	}
	if _, err := registry.ParsePrimaryPolicy(c.Registry.PrimaryPolicy); err != nil {
		return fmt.Errorf("registry.primary_policy: %w", err)
	}
	if c.Registry.Refresh != "" {
		if _, err := cron.ParseStandard(c.Registry.Refresh); err != nil {
			return fmt.Errorf("registry.refresh: invalid cron spec %q: %w", c.Registry.Refresh, err)
		}
	}

	switch c.Server.Transport {
	case "":
		c.Server.Transport = TransportStdio
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("server.transport: unsupported transport %q (use %s or %s)",
			c.Server.Transport, TransportStdio, TransportStreamableHTTP)
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}

	return nil
}

// PrimaryPolicy returns the parsed registry primary policy.
func (c *Config) PrimaryPolicy() registry.PrimaryPolicy {
	p, _ := registry.ParsePrimaryPolicy(c.Registry.PrimaryPolicy)
	return p
}
