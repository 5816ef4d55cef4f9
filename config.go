package sessionkit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config groups the tunable knobs of the session manager. Construct it
// with [DefaultConfig] or [LoadConfig] and treat it as immutable after
// [Builder.Build].
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig describes how to reach the backend. It is consumed by
// sessionkit/restapi; the Manager itself never opens connections.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// SessionConfig controls session reconstruction and logout behavior.
type SessionConfig struct {
	// DefaultTTL is the advisory session duration assumed when the real
	// expiry is unknown, i.e. when the session is rebuilt from stored
	// tokens and the access token carries no readable expiry claim.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// LogoutTimeout bounds the detached best-effort logout call.
	LogoutTimeout time.Duration `yaml:"logout_timeout"`
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   15 * time.Second,
			UserAgent: "sessionkit",
		},
		Session: SessionConfig{
			DefaultTTL:    15 * time.Minute,
			LogoutTimeout: 3 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults. A missing
// file (or an empty path) yields the defaults without error; an existing
// but unreadable or malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	if c.Session.DefaultTTL <= 0 {
		return errors.New("session.default_ttl must be positive")
	}
	if c.Session.LogoutTimeout <= 0 {
		return errors.New("session.logout_timeout must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit.buffer_size must not be negative")
	}
	return nil
}
