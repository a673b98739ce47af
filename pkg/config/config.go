// Package config handles loading and managing seoauditor configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the service and CLI.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Fetch     FetchConfig     `yaml:"fetch"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	PageSpeed PageSpeedConfig `yaml:"pagespeed"`
	Google    GoogleConfig    `yaml:"google"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// ServerConfig controls the HTTP listener and its credentials.
type ServerConfig struct {
	Port       string `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	CronSecret string `yaml:"cron_secret"`
}

// DatabaseConfig points at Postgres.
type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// StorageConfig selects the archive backend: local, s3 or gcs.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// FetchConfig bounds page fetches.
type FetchConfig struct {
	Timeout   int    `yaml:"timeout"` // seconds
	MaxBytes  int64  `yaml:"max_bytes"`
	UserAgent string `yaml:"user_agent"`
}

// RateLimitConfig controls the public audit limiter.
type RateLimitConfig struct {
	Limit  int `yaml:"limit"`
	Window int `yaml:"window"` // seconds
	Sweep  int `yaml:"sweep"`  // seconds
}

// PageSpeedConfig controls the PageSpeed Insights client.
type PageSpeedConfig struct {
	APIKey            string  `yaml:"api_key"`
	Strategy          string  `yaml:"strategy"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	CacheTTL          int     `yaml:"cache_ttl"` // seconds
	CacheSize         int     `yaml:"cache_size"`
}

// GoogleConfig holds the OAuth client used for GA4 and Search Console.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// AlertsConfig controls the monthly regression alert.
type AlertsConfig struct {
	OffsetDays    int    `yaml:"offset_days"`
	AppURL        string `yaml:"app_url"`
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			URL:         "postgres://localhost:5432/seoauditor?sslmode=disable",
			AutoMigrate: true,
		},
		Storage: StorageConfig{
			Backend: "local",
			Path:    "./data/archive",
		},
		Fetch: FetchConfig{
			Timeout:   10,
			MaxBytes:  5 << 20,
			UserAgent: "Mozilla/5.0 (compatible; SEOAuditorBot/1.0; +https://seoauditor.app)",
		},
		RateLimit: RateLimitConfig{
			Limit:  5,
			Window: 3600,
			Sweep:  600,
		},
		PageSpeed: PageSpeedConfig{
			Strategy:          "mobile",
			RequestsPerSecond: 1,
			Burst:             2,
			CacheTTL:          86400,
			CacheSize:         512,
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost:3000/api/google/callback",
		},
		Alerts: AlertsConfig{
			OffsetDays: 28,
			AppURL:     "http://localhost:3000",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides values from the environment. Unset variables leave
// the current value alone; malformed numbers are an error.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	var firstErr error
	num := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", key, err)
			}
			return
		}
		*dst = n
	}

	str("PORT", &c.Server.Port)
	str("API_KEY", &c.Server.APIKey)
	str("CRON_SECRET", &c.Server.CronSecret)
	str("DATABASE_URL", &c.Database.URL)
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTO_MIGRATE: %w", err)
		}
		c.Database.AutoMigrate = b
	}

	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("LOCAL_STORAGE_PATH", &c.Storage.Path)
	str("STORAGE_BUCKET", &c.Storage.Bucket)
	str("STORAGE_REGION", &c.Storage.Region)
	str("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("STORAGE_ACCESS_KEY", &c.Storage.AccessKey)
	str("STORAGE_SECRET_KEY", &c.Storage.SecretKey)

	num("FETCH_TIMEOUT", &c.Fetch.Timeout)
	str("FETCH_USER_AGENT", &c.Fetch.UserAgent)

	num("RATE_LIMIT", &c.RateLimit.Limit)
	num("RATE_LIMIT_WINDOW", &c.RateLimit.Window)

	str("PAGESPEED_API_KEY", &c.PageSpeed.APIKey)
	str("PAGESPEED_STRATEGY", &c.PageSpeed.Strategy)

	str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("GOOGLE_REDIRECT_URL", &c.Google.RedirectURL)

	num("ALERT_OFFSET_DAYS", &c.Alerts.OffsetDays)
	str("APP_URL", &c.Alerts.AppURL)
	str("ALERT_WEBHOOK_URL", &c.Alerts.WebhookURL)
	str("ALERT_WEBHOOK_SECRET", &c.Alerts.WebhookSecret)

	return firstErr
}

// FetchTimeout returns the page fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.Timeout) * time.Second
}

// RateLimitWindow returns the public audit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.Window) * time.Second
}

// SweepInterval returns how often expired limiter entries are dropped.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.RateLimit.Sweep) * time.Second
}

// PageSpeedCacheTTL returns how long PageSpeed results are reused.
func (c *Config) PageSpeedCacheTTL() time.Duration {
	return time.Duration(c.PageSpeed.CacheTTL) * time.Second
}

// FindConfigFile looks for .seoauditor/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".seoauditor", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
