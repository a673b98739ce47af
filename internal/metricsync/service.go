// Package metricsync pulls fresh metrics snapshots for every tracked site
// and, once a month, alerts owners about significant regressions.
package metricsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/seoauditor/seoauditor/internal/archive"
	"github.com/seoauditor/seoauditor/internal/notify"
	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/metrics"
	"github.com/seoauditor/seoauditor/pkg/regression"
)

// DefaultOffset is how many snapshots back the monthly comparison looks.
const DefaultOffset = 28

// Sync statuses.
const (
	StatusSkipped = "skipped"
	StatusSynced  = "synced"
	StatusError   = "error"
)

// Store is the persistence the sync needs.
type Store interface {
	ListSites(ctx context.Context) ([]store.Site, error)
	SaveSnapshot(ctx context.Context, m *metrics.Snapshot) (string, error)
	TouchSiteSync(ctx context.Context, siteID string, at time.Time) error
	GetSnapshotOffset(ctx context.Context, siteID string, offset int) (*metrics.Snapshot, error)
	SaveAlerts(ctx context.Context, alerts []store.Alert) error
}

// Source fetches a fresh snapshot for a site.
type Source interface {
	FetchSnapshot(ctx context.Context, site *store.Site) (*metrics.Snapshot, error)
}

// SyncResult is the outcome for one site.
type SyncResult struct {
	SiteID string `json:"site_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Service runs the metrics sync.
type Service struct {
	store    Store
	source   Source
	notifier notify.Notifier
	archive  archive.StorageClient // optional
	detector *regression.Detector

	// Offset is the snapshot offset used as the monthly baseline.
	Offset int
	Now    func() time.Time
}

// NewService creates a sync Service. arch may be nil.
func NewService(s Store, src Source, n notify.Notifier, arch archive.StorageClient) *Service {
	det := regression.NewDetector()
	det.OnSkip = func(metric string, reason regression.SkipReason) {
		log.Printf("regression: skipped %s (%s)", metric, reason)
	}
	return &Service{
		store:    s,
		source:   src,
		notifier: n,
		archive:  arch,
		detector: det,
		Offset:   DefaultOffset,
		Now:      time.Now,
	}
}

// SyncAll syncs every site. A failing site is reported and does not stop
// the others; only a failure to list sites is returned as an error.
func (s *Service) SyncAll(ctx context.Context) ([]SyncResult, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	monthly := s.Now().Day() == 1
	results := make([]SyncResult, 0, len(sites))
	for i := range sites {
		site := &sites[i]
		if !site.SetupComplete() {
			results = append(results, SyncResult{SiteID: site.ID, Status: StatusSkipped, Error: "incomplete setup"})
			continue
		}
		if err := s.syncSite(ctx, site, monthly); err != nil {
			log.Printf("sync site %s: %v", site.ID, err)
			results = append(results, SyncResult{SiteID: site.ID, Status: StatusError, Error: err.Error()})
			continue
		}
		results = append(results, SyncResult{SiteID: site.ID, Status: StatusSynced})
	}
	return results, nil
}

func (s *Service) syncSite(ctx context.Context, site *store.Site, monthly bool) error {
	snap, err := s.source.FetchSnapshot(ctx, site)
	if err != nil {
		return err
	}
	snap.SiteID = site.ID

	id, err := s.store.SaveSnapshot(ctx, snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := s.store.TouchSiteSync(ctx, site.ID, s.Now()); err != nil {
		return fmt.Errorf("touch last sync: %w", err)
	}
	s.archiveSnapshot(ctx, site.ID, id, snap)

	if monthly {
		if _, err := s.RunMonthlyAlert(ctx, site, snap); err != nil {
			return fmt.Errorf("monthly alert: %w", err)
		}
	}
	return nil
}

// RunMonthlyAlert compares current against the baseline snapshot and
// records and sends significant regressions. It returns the regressions
// that were alerted on.
func (s *Service) RunMonthlyAlert(ctx context.Context, site *store.Site, current *metrics.Snapshot) ([]regression.Regression, error) {
	if !site.AlertsEnabled {
		return nil, nil
	}
	previous, err := s.store.GetSnapshotOffset(ctx, site.ID, s.Offset)
	if err != nil {
		return nil, fmt.Errorf("load baseline snapshot: %w", err)
	}
	if previous == nil {
		return nil, nil
	}

	regs := regression.Significant(s.detector.Detect(current, previous))
	if len(regs) == 0 {
		return nil, nil
	}

	now := s.Now()
	alerts := make([]store.Alert, len(regs))
	for i, r := range regs {
		alerts[i] = store.Alert{
			SiteID:        site.ID,
			AlertType:     string(r.Type),
			Metric:        r.Metric,
			PreviousValue: r.PreviousValue,
			CurrentValue:  r.CurrentValue,
			ChangePercent: r.ChangePercent,
			Message:       r.Message,
			EmailSent:     true,
			CreatedAt:     now,
		}
	}
	if err := s.store.SaveAlerts(ctx, alerts); err != nil {
		return nil, fmt.Errorf("save alerts: %w", err)
	}

	if site.OwnerEmail != "" && s.notifier != nil {
		err := s.notifier.SendRegressionAlert(ctx, notify.Alert{
			Recipient:   site.OwnerEmail,
			SiteName:    site.Name,
			SiteURL:     site.URL,
			SiteID:      site.ID,
			Regressions: regs,
		})
		if err != nil {
			return regs, fmt.Errorf("send alert: %w", err)
		}
	}
	return regs, nil
}

func (s *Service) archiveSnapshot(ctx context.Context, siteID, snapshotID string, snap *metrics.Snapshot) {
	if s.archive == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("warning: failed to encode snapshot %s: %v", snapshotID, err)
		return
	}
	if err := s.archive.PutSnapshot(ctx, siteID, snapshotID, data); err != nil {
		log.Printf("warning: failed to archive snapshot %s: %v", snapshotID, err)
	}
}
