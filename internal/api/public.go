package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/seoauditor/seoauditor/internal/publicaudit"
	"github.com/seoauditor/seoauditor/internal/ratelimit"
	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
)

const maxRequestBody = 64 << 10

type publicAuditRequest struct {
	URL string `json:"url"`
}

// clientKey identifies the caller for rate limiting: the first
// X-Forwarded-For entry, or "unknown".
func clientKey(r *http.Request) string {
	fwd := r.Header.Get("X-Forwarded-For")
	if fwd == "" {
		return "unknown"
	}
	first, _, _ := strings.Cut(fwd, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return "unknown"
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.UnixMilli(), 10))
}

func (h *Handler) handlePublicAudit(w http.ResponseWriter, r *http.Request) {
	decision := h.limiter.Check(clientKey(r))
	setRateLimitHeaders(w, decision)
	if !decision.Allowed {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":   "Rate limit exceeded. Try again later.",
			"resetAt": decision.ResetAt.UnixMilli(),
		})
		return
	}

	var req publicAuditRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.public.Run(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		var ve *publicaudit.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "Invalid URL. Please enter a valid website address.",
				"reason": ve.Reason,
			})
		case errors.Is(err, htmlmeta.ErrUnreachable):
			log.Printf("public audit: %v", err)
			writeError(w, http.StatusUnprocessableEntity, "Could not reach the website. Please check the URL and try again.")
		default:
			log.Printf("public audit error: %v", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
