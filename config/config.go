package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds scraper and normalizer configuration.
type Config struct {
	ManufacturersPath  string        `yaml:"manufacturers_path"`
	IntermediatePath   string        `yaml:"intermediate_path"`
	OutputPath         string        `yaml:"output_path"`
	OutputFormat       string        `yaml:"output_format"` // js, json, or dual
	EndpointURL        string        `yaml:"endpoint_url"`
	UserAgent          string        `yaml:"user_agent"`
	Referer            string        `yaml:"referer"`
	ReferenceBaseURL   string        `yaml:"reference_base_url"`
	Timeout            time.Duration `yaml:"timeout"`
	Delay              time.Duration `yaml:"delay"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax    time.Duration `yaml:"retry_backoff_max"`
	CacheSize          int           `yaml:"cache_size"`
	AppendIntermediate bool          `yaml:"append_intermediate"`
	MetricsAddr        string        `yaml:"metrics_addr"`
	Verbose            bool          `yaml:"verbose"`
}

// DefaultConfig returns the settings used against the live site.
func DefaultConfig() *Config {
	return &Config{
		ManufacturersPath: "manufacturers.txt",
		IntermediatePath:  "responses.jsonl",
		OutputPath:        "data.js",
		OutputFormat:      "js",
		EndpointURL:       "https://www.192-168-1-1-ip.co/ajaxData.php",
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.96 Safari/537.36",
		Referer:           "https://www.192-168-1-1-ip.co/default-usernames-passwords/",
		ReferenceBaseURL:  "http://192-168-1-1-ip.co",
		Timeout:           30 * time.Second,
		Delay:             0,
		MaxRetries:        2,
		RetryBackoff:      500 * time.Millisecond,
		RetryBackoffMax:   5 * time.Second,
		CacheSize:         4096,
	}
}

// Load reads a YAML file on top of DefaultConfig. Keys missing from the
// file keep their default value.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := validateURL("endpoint URL", c.EndpointURL); err != nil {
		return err
	}
	if err := validateURL("reference base URL", c.ReferenceBaseURL); err != nil {
		return err
	}
	if c.Referer != "" {
		if _, err := url.Parse(c.Referer); err != nil {
			return fmt.Errorf("invalid referer: %w", err)
		}
	}

	if c.ManufacturersPath == "" {
		return fmt.Errorf("manufacturers path cannot be empty")
	}
	if c.IntermediatePath == "" {
		return fmt.Errorf("intermediate path cannot be empty")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if c.OutputFormat != "js" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be js, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}

	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}

// EnvString returns the value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer. ok is false when the variable is unset.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// ApplyEnv overlays CREDSCRAPER_* environment variables on c.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"CREDSCRAPER_MANUFACTURERS": &c.ManufacturersPath,
		"CREDSCRAPER_INTERMEDIATE":  &c.IntermediatePath,
		"CREDSCRAPER_OUTPUT":        &c.OutputPath,
		"CREDSCRAPER_ENDPOINT":      &c.EndpointURL,
		"CREDSCRAPER_USER_AGENT":    &c.UserAgent,
		"CREDSCRAPER_METRICS_ADDR":  &c.MetricsAddr,
	}
	for key, dst := range strs {
		if value, ok := EnvString(key); ok {
			*dst = value
		}
	}

	if value, ok, err := EnvInt("CREDSCRAPER_MAX_RETRIES"); err != nil {
		return err
	} else if ok {
		c.MaxRetries = value
	}
	if value, ok, err := EnvInt("CREDSCRAPER_CACHE_SIZE"); err != nil {
		return err
	} else if ok {
		c.CacheSize = value
	}
	return nil
}
