// ABOUTME: Configuration loading and parsing for the coven-mcp client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete coven-mcp client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Timing  TimingConfig  `yaml:"timing"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the MCP server endpoint configuration.
type ServerConfig struct {
	URL string `yaml:"url"` // ws:// or wss:// endpoint
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Token string `yaml:"token"`
}

// TimingConfig holds keepalive, timeout, and reconnection settings.
type TimingConfig struct {
	Reconnect            bool `yaml:"reconnect"`
	MaxReconnectAttempts int  `yaml:"max_reconnect_attempts"`

	PingInterval      time.Duration `yaml:"-"`
	RequestTimeout    time.Duration `yaml:"-"`
	ReconnectInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	PingIntervalRaw      string `yaml:"ping_interval"`
	RequestTimeoutRaw    string `yaml:"request_timeout"`
	ReconnectIntervalRaw string `yaml:"reconnect_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server.url must use ws:// or wss:// scheme")
	}

	if c.Timing.MaxReconnectAttempts < 0 {
		return fmt.Errorf("timing.max_reconnect_attempts must not be negative")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Timing.PingIntervalRaw != "" {
		cfg.Timing.PingInterval, err = time.ParseDuration(cfg.Timing.PingIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing ping_interval %q: %w", cfg.Timing.PingIntervalRaw, err)
		}
	}

	if cfg.Timing.RequestTimeoutRaw != "" {
		cfg.Timing.RequestTimeout, err = time.ParseDuration(cfg.Timing.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.Timing.RequestTimeoutRaw, err)
		}
	}

	if cfg.Timing.ReconnectIntervalRaw != "" {
		cfg.Timing.ReconnectInterval, err = time.ParseDuration(cfg.Timing.ReconnectIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_interval %q: %w", cfg.Timing.ReconnectIntervalRaw, err)
		}
	}

	return nil
}
