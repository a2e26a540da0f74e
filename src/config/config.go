// Package config loads the llmchat YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the backend address compiled into the binary.
// Override at build time with -ldflags "-X llmchat/src/config.DefaultBaseURL=...".
var DefaultBaseURL = "http://localhost:8000"

// Config holds all llmchat configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Health  HealthConfig  `yaml:"health"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
}

// APIConfig configures the chat backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// SendTimeout bounds a single send round trip. "0" or empty means no client-side limit.
	SendTimeout string `yaml:"send_timeout"`
	ListLimit   int    `yaml:"list_limit"`
}

// HealthConfig configures the connectivity probe.
type HealthConfig struct {
	Interval string `yaml:"interval"`
	Timeout  string `yaml:"timeout"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	AltScreen bool `yaml:"alt_screen"`
	Markdown  bool `yaml:"markdown"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     DefaultBaseURL,
			SendTimeout: "0",
			ListLimit:   50,
		},
		Health: HealthConfig{
			Interval: "30s",
			Timeout:  "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "llmchat.log",
		},
		UI: UIConfig{
			AltScreen: true,
			Markdown:  true,
		},
	}
}

// DefaultPath returns the per-user config location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".config", "llmchat", "config.yaml")
	}
	return filepath.Join(dir, "llmchat", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LLMCHAT_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("LLMCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LLMCHAT_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate checks the values that cannot fall back to a default.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url %q: %w", c.API.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api.base_url %q: scheme must be http or https", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: missing host", c.API.BaseURL)
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	return nil
}

// GetSendTimeout returns the send timeout, zero meaning none.
func (c *Config) GetSendTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.SendTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetHealthInterval returns the probe period.
func (c *Config) GetHealthInterval() time.Duration {
	d, err := time.ParseDuration(c.Health.Interval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetHealthTimeout returns the per-probe timeout.
func (c *Config) GetHealthTimeout() time.Duration {
	d, err := time.ParseDuration(c.Health.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// GetListLimit returns the page size used for conversation list fetches.
func (c *Config) GetListLimit() int {
	if c.API.ListLimit <= 0 {
		return 50
	}
	return c.API.ListLimit
}
