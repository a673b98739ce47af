// Package siteaudit runs audits of tracked sites against their latest
// stored metrics snapshot.
package siteaudit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/seoauditor/seoauditor/internal/archive"
	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// MaxRecommendations is the number of recommendations kept per audit.
const MaxRecommendations = 3

// ErrQuotaExceeded is returned when the site owner's plan allows no more
// audits this month.
var ErrQuotaExceeded = errors.New("monthly audit limit reached")

// Store is the persistence the audit needs.
type Store interface {
	GetLatestSnapshot(ctx context.Context, siteID string) (*metrics.Snapshot, error)
	CreateAudit(ctx context.Context, siteID string) (string, error)
	UpdateAuditStatus(ctx context.Context, auditID, status string) error
	SaveAuditResult(ctx context.Context, a *store.Audit) error
	CountAuditsSince(ctx context.Context, siteID string, since time.Time) (int, error)
}

// Service runs snapshot audits.
type Service struct {
	store   Store
	archive archive.StorageClient // optional
	recs    *audit.Recommender
	now     func() time.Time
}

// NewService creates a Service. archive may be nil.
func NewService(s Store, arch archive.StorageClient) *Service {
	recs := audit.NewRecommender(audit.MetricTemplates)
	recs.OnSkip = func(ruleID string) {
		log.Printf("audit: no recommendation template for rule %s", ruleID)
	}
	return &Service{store: s, archive: arch, recs: recs, now: time.Now}
}

// CheckQuota returns ErrQuotaExceeded if the site's plan has used up its
// monthly audits.
func (s *Service) CheckQuota(ctx context.Context, site *store.Site) error {
	limits := audit.PlanLimits(site.Plan)
	if limits.MaxAuditsPerMonth < 0 {
		return nil
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	used, err := s.store.CountAuditsSince(ctx, site.ID, monthStart)
	if err != nil {
		return fmt.Errorf("count audits: %w", err)
	}
	if !limits.AllowsAudit(used) {
		return ErrQuotaExceeded
	}
	return nil
}

// tracker moves one audit through its lifecycle.
type tracker struct {
	store  Store
	id     string
	status Status
}

func (t *tracker) set(ctx context.Context, next Status) error {
	if !t.status.CanTransition(next) {
		return fmt.Errorf("audit %s: invalid transition %s -> %s", t.id, t.status, next)
	}
	if err := t.store.UpdateAuditStatus(ctx, t.id, string(next)); err != nil {
		return err
	}
	t.status = next
	return nil
}

// RunSnapshotAudit creates an audit for siteID and evaluates it against the
// newest snapshot. A site without snapshots yields a failed audit and a nil
// error. Store failures mark the audit failed and are returned.
func (s *Service) RunSnapshotAudit(ctx context.Context, siteID string) (result *store.Audit, err error) {
	auditID, err := s.store.CreateAudit(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("create audit: %w", err)
	}
	t := &tracker{store: s.store, id: auditID, status: StatusPending}

	defer func() {
		if err != nil && !t.status.Terminal() {
			if updateErr := t.set(ctx, StatusFailed); updateErr != nil {
				log.Printf("failed to update audit status: %v", updateErr)
			}
		}
	}()

	if err := t.set(ctx, StatusRunning); err != nil {
		return nil, fmt.Errorf("update status to running: %w", err)
	}

	snap, err := s.store.GetLatestSnapshot(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	res := &store.Audit{
		ID:              auditID,
		SiteID:          siteID,
		Issues:          []audit.Issue{},
		Recommendations: []audit.Recommendation{},
		Checklist:       []audit.ChecklistItem{},
		CreatedAt:       s.now(),
	}

	if snap == nil {
		log.Printf("audit %s: site %s has no metrics snapshot", auditID, siteID)
		res.Status = string(StatusFailed)
		if err := s.store.SaveAuditResult(ctx, res); err != nil {
			return nil, fmt.Errorf("save failed audit: %w", err)
		}
		t.status = StatusFailed
		return res, nil
	}

	issues := audit.EvaluateRules(snap)
	scores := audit.ComputeScores(issues)
	completedAt := s.now()

	res.Status = string(StatusCompleted)
	res.OverallScore = &scores.Overall
	res.Scores = &scores
	res.Issues = issues
	res.Recommendations = audit.TopN(s.recs.Generate(issues), MaxRecommendations)
	res.Checklist = audit.DefaultChecklist()
	res.CompletedAt = &completedAt

	if err := s.store.SaveAuditResult(ctx, res); err != nil {
		return nil, fmt.Errorf("save audit result: %w", err)
	}
	t.status = StatusCompleted

	s.archiveResult(ctx, res)
	return res, nil
}

func (s *Service) archiveResult(ctx context.Context, res *store.Audit) {
	if s.archive == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		log.Printf("warning: failed to encode audit %s for archive: %v", res.ID, err)
		return
	}
	if err := s.archive.PutAudit(ctx, res.SiteID, res.ID, data); err != nil {
		log.Printf("warning: failed to archive audit %s: %v", res.ID, err)
	}
}
