package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("expected local storage, got %q", cfg.Storage.Backend)
	}
	if cfg.RateLimit.Limit != 5 || cfg.RateLimitWindow() != time.Hour {
		t.Errorf("expected 5 per hour, got %d per %v", cfg.RateLimit.Limit, cfg.RateLimitWindow())
	}
	if cfg.PageSpeedCacheTTL() != 24*time.Hour {
		t.Errorf("expected 24h PageSpeed cache, got %v", cfg.PageSpeedCacheTTL())
	}
	if cfg.Alerts.OffsetDays != 28 {
		t.Errorf("expected alert offset 28, got %d", cfg.Alerts.OffsetDays)
	}
	if cfg.FetchTimeout() != 10*time.Second {
		t.Errorf("expected 10s fetch timeout, got %v", cfg.FetchTimeout())
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    *string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "non-existent file returns defaults",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8080" {
					t.Errorf("expected default port, got %q", cfg.Server.Port)
				}
			},
		},
		{
			name: "valid YAML overrides defaults",
			yaml: ptr(`
server:
  port: "9090"
  cron_secret: s3cret
storage:
  backend: s3
  bucket: audits
rate_limit:
  limit: 10
pagespeed:
  strategy: desktop
alerts:
  app_url: https://app.seoauditor.example
`),
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "9090" || cfg.Server.CronSecret != "s3cret" {
					t.Errorf("server = %+v", cfg.Server)
				}
				if cfg.Storage.Backend != "s3" || cfg.Storage.Bucket != "audits" {
					t.Errorf("storage = %+v", cfg.Storage)
				}
				if cfg.RateLimit.Limit != 10 || cfg.RateLimit.Window != 3600 {
					t.Errorf("rate limit = %+v", cfg.RateLimit)
				}
				if cfg.PageSpeed.Strategy != "desktop" || cfg.PageSpeed.CacheSize != 512 {
					t.Errorf("pagespeed = %+v", cfg.PageSpeed)
				}
				if cfg.Alerts.AppURL != "https://app.seoauditor.example" || cfg.Alerts.OffsetDays != 28 {
					t.Errorf("alerts = %+v", cfg.Alerts)
				}
			},
		},
		{
			name:    "invalid YAML returns error",
			yaml:    ptr("{{invalid yaml"),
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if tc.yaml != nil {
				if err := os.WriteFile(path, []byte(*tc.yaml), 0o644); err != nil {
					t.Fatalf("write test config: %v", err)
				}
			}

			cfg, err := Load(path)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "postgres://db/seo")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("STORAGE_BACKEND", "gcs")
	t.Setenv("RATE_LIMIT", "20")
	t.Setenv("PAGESPEED_API_KEY", "psi-key")
	t.Setenv("ALERT_OFFSET_DAYS", "30")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Database.URL != "postgres://db/seo" || cfg.Database.AutoMigrate {
		t.Errorf("server/database = %+v %+v", cfg.Server, cfg.Database)
	}
	if cfg.Storage.Backend != "gcs" || cfg.RateLimit.Limit != 20 || cfg.PageSpeed.APIKey != "psi-key" || cfg.Alerts.OffsetDays != 30 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Storage.Path != "./data/archive" {
		t.Errorf("unset variable changed Storage.Path to %q", cfg.Storage.Path)
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	t.Setenv("RATE_LIMIT", "lots")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric RATE_LIMIT")
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("found in parent directory", func(t *testing.T) {
		root := t.TempDir()
		configDir := filepath.Join(root, ".seoauditor")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			t.Fatalf("create config dir: %v", err)
		}
		configPath := filepath.Join(configDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		sub := filepath.Join(root, "a", "b")
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatalf("create sub: %v", err)
		}

		if got := FindConfigFile(sub); got != configPath {
			t.Errorf("FindConfigFile = %q, want %q", got, configPath)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if got := FindConfigFile(t.TempDir()); got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}

func ptr(s string) *string { return &s }
