package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/seoauditor/seoauditor/internal/siteaudit"
	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/regression"
)

const maxListLimit = 100

type regressionsResponse struct {
	SiteID      string                  `json:"site_id"`
	Offset      int                     `json:"offset"`
	Regressions []regression.Regression `json:"regressions"`
	Significant []regression.Regression `json:"significant"`
}

// loadSite writes a 404 and returns nil when the site does not exist.
func (h *Handler) loadSite(w http.ResponseWriter, r *http.Request) *store.Site {
	site, err := h.sites.GetSite(r.Context(), r.PathValue("siteID"))
	if err != nil {
		log.Printf("get site: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load site")
		return nil
	}
	if site == nil {
		writeError(w, http.StatusNotFound, "Site not found")
		return nil
	}
	return site
}

func (h *Handler) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	site := h.loadSite(w, r)
	if site == nil {
		return
	}

	if err := h.audits.CheckQuota(r.Context(), site); err != nil {
		if errors.Is(err, siteaudit.ErrQuotaExceeded) {
			writeError(w, http.StatusForbidden, "Monthly audit limit reached. Upgrade to Pro or Agency for unlimited audits.")
			return
		}
		log.Printf("check quota for site %s: %v", site.ID, err)
		writeError(w, http.StatusInternalServerError, "Audit failed")
		return
	}

	result, err := h.audits.RunSnapshotAudit(r.Context(), site.ID)
	if err != nil {
		log.Printf("audit error for site %s: %v", site.ID, err)
		writeError(w, http.StatusInternalServerError, "Audit failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": result})
}

func (h *Handler) handleListAudits(w http.ResponseWriter, r *http.Request) {
	site := h.loadSite(w, r)
	if site == nil {
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}

	audits, err := h.sites.ListAudits(r.Context(), site.ID, limit)
	if err != nil {
		log.Printf("list audits for site %s: %v", site.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to list audits")
		return
	}
	if audits == nil {
		audits = []store.Audit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"audits": audits})
}

func (h *Handler) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	a, err := h.sites.GetAudit(r.Context(), r.PathValue("siteID"), r.PathValue("auditID"))
	if err != nil {
		log.Printf("get audit: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load audit")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Audit not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": a})
}

func (h *Handler) handleRegressions(w http.ResponseWriter, r *http.Request) {
	site := h.loadSite(w, r)
	if site == nil {
		return
	}
	ctx := r.Context()

	current, err := h.sites.GetLatestSnapshot(ctx, site.ID)
	if err != nil {
		log.Printf("latest snapshot for site %s: %v", site.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshots")
		return
	}
	previous, err := h.sites.GetSnapshotOffset(ctx, site.ID, h.regressionOffset)
	if err != nil {
		log.Printf("baseline snapshot for site %s: %v", site.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshots")
		return
	}

	regs := regression.DetectRegressions(current, previous)
	significant := regression.Significant(regs)
	if significant == nil {
		significant = []regression.Regression{}
	}
	writeJSON(w, http.StatusOK, regressionsResponse{
		SiteID:      site.ID,
		Offset:      h.regressionOffset,
		Regressions: regs,
		Significant: significant,
	})
}

func (h *Handler) handleGoogleConnect(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		writeError(w, http.StatusBadRequest, "state is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": h.google.AuthCodeURL(state)})
}
