package api

import (
	"log"
	"net/http"

	"github.com/seoauditor/seoauditor/internal/metricsync"
)

type cronResponse struct {
	Synced  int                     `json:"synced"`
	Skipped int                     `json:"skipped"`
	Errors  int                     `json:"errors"`
	Results []metricsync.SyncResult `json:"results"`
}

func (h *Handler) handleCronSync(w http.ResponseWriter, r *http.Request) {
	results, err := h.sync.SyncAll(r.Context())
	if err != nil {
		log.Printf("cron sync: %v", err)
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	resp := cronResponse{Results: results}
	for _, res := range results {
		switch res.Status {
		case metricsync.StatusSynced:
			resp.Synced++
		case metricsync.StatusSkipped:
			resp.Skipped++
		case metricsync.StatusError:
			resp.Errors++
		}
	}
	log.Printf("cron sync: %d synced, %d skipped, %d errors", resp.Synced, resp.Skipped, resp.Errors)
	writeJSON(w, http.StatusOK, resp)
}
