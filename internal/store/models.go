// Package store persists sites, metrics snapshots, audits and alerts in
// Postgres.
package store

import (
	"time"

	"github.com/seoauditor/seoauditor/pkg/audit"
)

// Site is a tracked website together with the owner data the sync and
// alerting paths need.
type Site struct {
	ID                 string
	UserID             string
	URL                string
	Name               string
	GoogleConnectionID *string
	GA4PropertyID      *string
	GSCSiteURL         *string
	LastSyncAt         *time.Time
	CreatedAt          time.Time

	OwnerEmail    string
	Plan          audit.Plan
	AlertsEnabled bool // owner has an active subscription
}

// SetupComplete reports whether the site is linked to Google with both a
// GA4 property and a Search Console property.
func (s *Site) SetupComplete() bool {
	return s.GoogleConnectionID != nil && *s.GoogleConnectionID != "" &&
		s.GA4PropertyID != nil && *s.GA4PropertyID != "" &&
		s.GSCSiteURL != nil && *s.GSCSiteURL != ""
}

// GoogleConnection holds the OAuth tokens of one linked Google account.
type GoogleConnection struct {
	ID             string
	UserID         string
	GoogleEmail    string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
	Scopes         string
}

// Audit is a persisted snapshot audit.
type Audit struct {
	ID              string                 `json:"id"`
	SiteID          string                 `json:"site_id"`
	Status          string                 `json:"status"`
	OverallScore    *int                   `json:"overall_score,omitempty"`
	Scores          *audit.Scores          `json:"scores,omitempty"`
	Issues          []audit.Issue          `json:"issues"`
	Recommendations []audit.Recommendation `json:"recommendations"`
	Checklist       []audit.ChecklistItem  `json:"checklist"`
	CreatedAt       time.Time              `json:"created_at"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

// Alert is one stored regression alert.
type Alert struct {
	ID            string    `json:"id"`
	SiteID        string    `json:"site_id"`
	AlertType     string    `json:"alert_type"`
	Metric        string    `json:"metric"`
	PreviousValue float64   `json:"previous_value"`
	CurrentValue  float64   `json:"current_value"`
	ChangePercent float64   `json:"change_percent"`
	Message       string    `json:"message"`
	EmailSent     bool      `json:"email_sent"`
	CreatedAt     time.Time `json:"created_at"`
}
