package sessionkit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("unexpected api timeout %v", cfg.API.Timeout)
	}
	if cfg.Session.DefaultTTL != 15*time.Minute {
		t.Fatalf("unexpected default ttl %v", cfg.Session.DefaultTTL)
	}
	if cfg.Audit.Enabled {
		t.Fatal("audit must be opt-in")
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("metrics default on")
	}
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
api:
  base_url: https://api.miraiworks.example
  timeout: 5s
session:
  logout_timeout: 1s
audit:
  enabled: true
  buffer_size: 64
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.API.BaseURL != "https://api.miraiworks.example" {
		t.Fatalf("base url not applied: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Fatalf("timeout not applied: %v", cfg.API.Timeout)
	}
	if cfg.Session.LogoutTimeout != time.Second {
		t.Fatalf("logout timeout not applied: %v", cfg.Session.LogoutTimeout)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 64 {
		t.Fatalf("audit section not applied: %+v", cfg.Audit)
	}

	// Unmentioned keys keep their defaults.
	if cfg.Session.DefaultTTL != 15*time.Minute {
		t.Fatalf("default ttl lost: %v", cfg.Session.DefaultTTL)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api: [broken"), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "negative api timeout",
			mutate: func(c *Config) {
				c.API.Timeout = -time.Second
			},
			wantValid: false,
		},
		{
			name: "zero default ttl",
			mutate: func(c *Config) {
				c.Session.DefaultTTL = 0
			},
			wantValid: false,
		},
		{
			name: "zero logout timeout",
			mutate: func(c *Config) {
				c.Session.LogoutTimeout = 0
			},
			wantValid: false,
		},
		{
			name: "negative audit buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = -1
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
