// Package metrics defines the point-in-time site metrics bundle that feeds
// the audit rules and the regression detector.
package metrics

import (
	"fmt"
	"time"
)

// Snapshot is one time-stamped bundle of a site's analytics and search metrics.
// Optional performance fields are nil when the upstream source had no data.
type Snapshot struct {
	SiteID       string     `json:"site_id,omitempty"`
	SnapshotDate time.Time  `json:"snapshot_date,omitempty"`
	Sessions     int        `json:"sessions"`
	MobilePct    float64    `json:"mobile_percent"`
	BounceRate   float64    `json:"bounce_rate"`
	Clicks       int        `json:"clicks"`
	Impressions  int        `json:"impressions"`
	CTR          float64    `json:"ctr"` // percent, 0-100
	AvgPosition  float64    `json:"avg_position"`
	IndexedPages *int       `json:"indexed_pages"`
	LCP          *float64   `json:"lcp"` // milliseconds
	CLS          *float64   `json:"cls"`
	FID          *float64   `json:"fid"` // milliseconds
	TopQueries   []TopQuery `json:"top_queries"`
}

// TopQuery is one search query row from Search Console.
type TopQuery struct {
	Query       string  `json:"query"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// Validate reports values no upstream source can legitimately produce.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if s.Sessions < 0 || s.Clicks < 0 || s.Impressions < 0 {
		return fmt.Errorf("negative count in snapshot (sessions=%d clicks=%d impressions=%d)",
			s.Sessions, s.Clicks, s.Impressions)
	}
	if s.IndexedPages != nil && *s.IndexedPages < 0 {
		return fmt.Errorf("negative indexed pages: %d", *s.IndexedPages)
	}
	return nil
}

// Clone returns a deep copy so callers can derive variants without aliasing.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.IndexedPages != nil {
		c.IndexedPages = Int(*s.IndexedPages)
	}
	if s.LCP != nil {
		c.LCP = Float(*s.LCP)
	}
	if s.CLS != nil {
		c.CLS = Float(*s.CLS)
	}
	if s.FID != nil {
		c.FID = Float(*s.FID)
	}
	if s.TopQueries != nil {
		c.TopQueries = append([]TopQuery(nil), s.TopQueries...)
	}
	return &c
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
