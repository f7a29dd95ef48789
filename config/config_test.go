package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty endpoint",
			mutate: func(cfg *Config) {
				cfg.EndpointURL = ""
			},
			wantErr: "endpoint URL",
		},
		{
			name: "endpoint without host",
			mutate: func(cfg *Config) {
				cfg.EndpointURL = "http://"
			},
			wantErr: "endpoint URL",
		},
		{
			name: "empty reference base",
			mutate: func(cfg *Config) {
				cfg.ReferenceBaseURL = ""
			},
			wantErr: "reference base URL",
		},
		{
			name: "empty manufacturers path",
			mutate: func(cfg *Config) {
				cfg.ManufacturersPath = ""
			},
			wantErr: "manufacturers path",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "backoff above max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = 10 * time.Second
				cfg.RetryBackoffMax = time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "negative cache size",
			mutate: func(cfg *Config) {
				cfg.CacheSize = -1
			},
			wantErr: "cache size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "endpoint_url: http://example.test/ajax.php\noutput_format: DUAL\ntimeout: 5s\nmax_retries: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EndpointURL != "http://example.test/ajax.php" {
		t.Fatalf("endpoint=%q", cfg.EndpointURL)
	}
	if cfg.OutputFormat != "dual" {
		t.Fatalf("format=%q, want dual", cfg.OutputFormat)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout=%v, want 5s", cfg.Timeout)
	}
	if cfg.MaxRetries != 0 {
		t.Fatalf("max retries=%d, want 0", cfg.MaxRetries)
	}
	if cfg.ManufacturersPath != DefaultConfig().ManufacturersPath {
		t.Fatalf("manufacturers path should keep its default, got %q", cfg.ManufacturersPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CREDSCRAPER_OUTPUT", "out/data.js")
	t.Setenv("CREDSCRAPER_MAX_RETRIES", "5")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.OutputPath != "out/data.js" {
		t.Fatalf("output=%q", cfg.OutputPath)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("max retries=%d, want 5", cfg.MaxRetries)
	}

	t.Setenv("CREDSCRAPER_CACHE_SIZE", "lots")
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatalf("expected error for non-numeric cache size")
	}
}
