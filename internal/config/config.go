// Package config loads attackkb settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

// Config holds attackkb settings
type Config struct {
	// Data is the technique export file or directory of exports
	Data string `yaml:"data"`

	// Field is the default search scope
	Field string `yaml:"field"`

	// Regex enables regex mode for free-text queries by default
	Regex bool `yaml:"regex"`

	// Format is the default output format
	Format string `yaml:"format"`

	Color bool `yaml:"color"`

	LogLevel string `yaml:"log_level"`

	// TokenLimit is the token budget for agent-mode MCP responses
	TokenLimit int `yaml:"token_limit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Data:       "",
		Field:      string(knowledge.ScopeAll),
		Regex:      false,
		Format:     string(knowledge.FormatTable),
		Color:      true,
		LogLevel:   "info",
		TokenLimit: knowledge.DefaultTokenLimit,
	}
}

// DefaultPath returns $HOME/.attackkb/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".attackkb", "config.yaml")
	}
	return filepath.Join(home, ".attackkb", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the user's own flag
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// #nosec G306 -- config holds no secrets
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies ATTACKKB_* environment variables
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ATTACKKB_DATA"); v != "" {
		c.Data = v
	}
	if v := os.Getenv("ATTACKKB_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("ATTACKKB_FIELD"); v != "" {
		c.Field = v
	}
	if v := os.Getenv("ATTACKKB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ATTACKKB_TOKEN_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse ATTACKKB_TOKEN_LIMIT: %w", err)
		}
		c.TokenLimit = n
	}
	return nil
}

// Validate checks that every setting names a supported value
func (c *Config) Validate() error {
	if _, err := knowledge.ParseFieldScope(c.Field); err != nil {
		return err
	}
	if _, err := knowledge.ParseOutputFormat(c.Format); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.TokenLimit < 0 {
		return fmt.Errorf("invalid token limit %d: must not be negative", c.TokenLimit)
	}
	return nil
}

// Level returns the configured log level
func (c *Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
