// Package config loads the zbctl configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/zerobuf/internal/logger"
	"github.com/joshuapare/zerobuf/object"
)

// EnvConfig names a config file used when --config is not given.
const EnvConfig = "ZBCTL_CONFIG"

// Config is the zbctl configuration.
type Config struct {
	Compact  Compact  `yaml:"compact"`
	Snapshot Snapshot `yaml:"snapshot"`
	Logging  Logging  `yaml:"logging"`
	Store    Store    `yaml:"store"`
	// Schemas lists YAML schema files loaded before every command.
	Schemas []string `yaml:"schemas,omitempty"`
}

// Compact configures the compact command.
type Compact struct {
	Threshold float32 `yaml:"threshold"`
}

// Snapshot configures pack.
type Snapshot struct {
	Compression string `yaml:"compression"`
	Level       string `yaml:"level"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Store configures the object store commands.
type Store struct {
	Dir  string `yaml:"dir"`
	Sync bool   `yaml:"sync"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Compact:  Compact{Threshold: object.DefaultCompactThreshold},
		Snapshot: Snapshot{Compression: "zstd", Level: "default"},
		Logging:  Logging{Level: "warn", Format: "text"},
		Store:    Store{Dir: "./zerobuf-store"},
	}
}

// Load reads the YAML file at path over the defaults. Relative schema paths
// are resolved against the directory of the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, s := range cfg.Schemas {
		if !filepath.IsAbs(s) {
			cfg.Schemas[i] = filepath.Join(dir, s)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	var errs []error
	if c.Compact.Threshold < 0 {
		errs = append(errs, fmt.Errorf("compact.threshold must not be negative, got %v", c.Compact.Threshold))
	}
	switch c.Snapshot.Compression {
	case "", "none", "zstd":
	default:
		errs = append(errs, fmt.Errorf("snapshot.compression must be none or zstd, got %q", c.Snapshot.Compression))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Resolve returns the config at path, at $ZBCTL_CONFIG when path is empty,
// or the defaults when neither is set.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
