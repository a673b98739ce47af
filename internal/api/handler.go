// Package api implements the seoauditor REST API: the public instant audit,
// site audits and regressions, and the internal cron trigger.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/seoauditor/seoauditor/internal/metricsync"
	"github.com/seoauditor/seoauditor/internal/publicaudit"
	"github.com/seoauditor/seoauditor/internal/ratelimit"
	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// PublicAuditor runs the unauthenticated audit of a live URL.
type PublicAuditor interface {
	Run(ctx context.Context, pageURL string) (*publicaudit.Result, error)
}

// SiteAuditor runs snapshot audits for tracked sites.
type SiteAuditor interface {
	CheckQuota(ctx context.Context, site *store.Site) error
	RunSnapshotAudit(ctx context.Context, siteID string) (*store.Audit, error)
}

// SiteStore is the read side the site routes need.
type SiteStore interface {
	GetSite(ctx context.Context, siteID string) (*store.Site, error)
	GetAudit(ctx context.Context, siteID, auditID string) (*store.Audit, error)
	ListAudits(ctx context.Context, siteID string, limit int) ([]store.Audit, error)
	GetLatestSnapshot(ctx context.Context, siteID string) (*metrics.Snapshot, error)
	GetSnapshotOffset(ctx context.Context, siteID string, offset int) (*metrics.Snapshot, error)
}

// Syncer runs the metrics sync for every site.
type Syncer interface {
	SyncAll(ctx context.Context) ([]metricsync.SyncResult, error)
}

// Connector starts the Google OAuth flow.
type Connector interface {
	AuthCodeURL(state string) string
}

// Options configures a Handler. Nil services disable their routes.
type Options struct {
	Public    PublicAuditor
	Limiter   ratelimit.Limiter
	Sites     SiteStore
	Audits    SiteAuditor
	Sync      Syncer
	Google    Connector
	APIKey    string
	CronToken string
	// RegressionOffset is the snapshot offset compared against the latest.
	RegressionOffset int
}

// Handler is the top-level API handler.
type Handler struct {
	public           PublicAuditor
	limiter          ratelimit.Limiter
	sites            SiteStore
	audits           SiteAuditor
	sync             Syncer
	google           Connector
	auth             func(http.Handler) http.Handler
	cronToken        string
	regressionOffset int
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewFixedWindow(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	}
	offset := opts.RegressionOffset
	if offset <= 0 {
		offset = metricsync.DefaultOffset
	}
	return &Handler{
		public:           opts.Public,
		limiter:          limiter,
		sites:            opts.Sites,
		audits:           opts.Audits,
		sync:             opts.Sync,
		google:           opts.Google,
		auth:             APIKeyAuth(opts.APIKey),
		cronToken:        opts.CronToken,
		regressionOffset: offset,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	if h.public != nil {
		mux.HandleFunc("POST /api/v1/public-audit", h.handlePublicAudit)
	}

	if h.sites != nil {
		mux.Handle("GET /api/v1/sites/{siteID}/audits", h.auth(http.HandlerFunc(h.handleListAudits)))
		mux.Handle("GET /api/v1/sites/{siteID}/audits/{auditID}", h.auth(http.HandlerFunc(h.handleGetAudit)))
		mux.Handle("GET /api/v1/sites/{siteID}/regressions", h.auth(http.HandlerFunc(h.handleRegressions)))
		if h.audits != nil {
			mux.Handle("POST /api/v1/sites/{siteID}/audits", h.auth(http.HandlerFunc(h.handleCreateAudit)))
		}
	}
	if h.google != nil {
		mux.Handle("GET /api/v1/google/connect", h.auth(http.HandlerFunc(h.handleGoogleConnect)))
	}

	if h.sync != nil {
		mux.Handle("POST /internal/cron/sync", BearerAuth(h.cronToken)(http.HandlerFunc(h.handleCronSync)))
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
