// Command seoauditd is the SEO auditor service.
// It serves the public audit endpoint, the site audit and regression API,
// the internal cron sync endpoint, and a health check.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seoauditor/seoauditor/internal/api"
	"github.com/seoauditor/seoauditor/internal/archive"
	"github.com/seoauditor/seoauditor/internal/google"
	"github.com/seoauditor/seoauditor/internal/metricsync"
	"github.com/seoauditor/seoauditor/internal/notify"
	"github.com/seoauditor/seoauditor/internal/platform"
	"github.com/seoauditor/seoauditor/internal/publicaudit"
	"github.com/seoauditor/seoauditor/internal/ratelimit"
	"github.com/seoauditor/seoauditor/internal/siteaudit"
	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/config"
	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
)

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if wd, err := os.Getwd(); err == nil {
		if path := config.FindConfigFile(wd); path != "" {
			if cfg, err = config.Load(path); err != nil {
				return nil, err
			}
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		version, err := platform.AutoMigrate(db)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Printf("database schema at version %d", version)
	}

	st := store.New(db)

	arch, err := archive.New(ctx, archive.Config{
		Backend:   cfg.Storage.Backend,
		Path:      cfg.Storage.Path,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}

	pageSpeed, err := google.NewPageSpeedClient(ctx, google.PageSpeedConfig{
		APIKey:            cfg.PageSpeed.APIKey,
		Strategy:          cfg.PageSpeed.Strategy,
		RequestsPerSecond: cfg.PageSpeed.RequestsPerSecond,
		Burst:             cfg.PageSpeed.Burst,
		CacheTTL:          cfg.PageSpeedCacheTTL(),
		CacheSize:         cfg.PageSpeed.CacheSize,
	})
	if err != nil {
		log.Fatalf("pagespeed client: %v", err)
	}

	// Initialize services
	connections := google.NewConnectionClients(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, st)
	source := google.NewSource(connections, pageSpeed)

	var notifier notify.Notifier = &notify.LogNotifier{AppURL: cfg.Alerts.AppURL}
	if cfg.Alerts.WebhookURL != "" {
		notifier = &notify.WebhookNotifier{
			URL:    cfg.Alerts.WebhookURL,
			Secret: []byte(cfg.Alerts.WebhookSecret),
			AppURL: cfg.Alerts.AppURL,
			Client: &http.Client{Timeout: 10 * time.Second},
		}
	}

	syncSvc := metricsync.NewService(st, source, notifier, arch)
	syncSvc.Offset = cfg.Alerts.OffsetDays

	limiter := ratelimit.NewFixedWindow(cfg.RateLimit.Limit, cfg.RateLimitWindow())
	go limiter.Run(ctx, cfg.SweepInterval())

	fetcher := htmlmeta.NewFetcher(nil)
	fetcher.Timeout = cfg.FetchTimeout()
	fetcher.MaxBytes = cfg.Fetch.MaxBytes
	if cfg.Fetch.UserAgent != "" {
		fetcher.UserAgent = cfg.Fetch.UserAgent
	}

	handler := api.NewHandler(api.Options{
		Public:           publicaudit.NewService(fetcher, pageSpeed, nil),
		Limiter:          limiter,
		Sites:            st,
		Audits:           siteaudit.NewService(st, arch),
		Sync:             syncSvc,
		Google:           connections,
		APIKey:           cfg.Server.APIKey,
		CronToken:        cfg.Server.CronSecret,
		RegressionOffset: cfg.Alerts.OffsetDays,
	})

	// Set up HTTP routes
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", healthHandler(db))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.CORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting seoauditd on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
