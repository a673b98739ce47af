// Package publicaudit runs the instant, unauthenticated audit of a live URL:
// PageSpeed performance rules plus on-page HTML rules.
package publicaudit

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seoauditor/seoauditor/internal/google"
	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// HTMLFetcher fetches and extracts page metadata.
type HTMLFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*htmlmeta.Metadata, error)
}

// PerformanceFetcher returns Core Web Vitals for a URL.
type PerformanceFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*google.PageSpeedResult, error)
}

// ValidationError rejects an audit request before any fetch runs.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid url %q: %s", e.URL, e.Reason)
}

// PerformanceMetrics are the PageSpeed values reported with a result.
type PerformanceMetrics struct {
	LCP             *float64 `json:"lcp"`
	CLS             *float64 `json:"cls"`
	FID             *float64 `json:"fid"`
	LighthouseScore *float64 `json:"lighthouse_score"`
}

// Result is the outcome of one public audit.
type Result struct {
	URL                string                 `json:"url"`
	Score              int                    `json:"score"`
	Scores             audit.PublicScores     `json:"scores"`
	PerformanceMetrics PerformanceMetrics     `json:"performance_metrics"`
	HTMLMetadata       *htmlmeta.Metadata     `json:"html_metadata"`
	Issues             []audit.Issue          `json:"issues"`
	Recommendations    []audit.Recommendation `json:"recommendations"`
	AuditedAt          time.Time              `json:"audited_at"`
}

// Service runs public audits.
type Service struct {
	html HTMLFetcher
	perf PerformanceFetcher
	now  func() time.Time

	perfRules   []audit.Rule
	onPageRules []audit.OnPageRule
	perfRecs    *audit.Recommender
	onPageRecs  *audit.Recommender
}

// NewService creates a public audit Service. A nil now uses time.Now.
func NewService(html HTMLFetcher, perf PerformanceFetcher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	skip := func(ruleID string) {
		log.Printf("public audit: no recommendation template for rule %s", ruleID)
	}
	perfRecs := audit.NewRecommender(audit.MetricTemplates)
	perfRecs.OnSkip = skip
	onPageRecs := audit.NewRecommender(audit.OnPageTemplates)
	onPageRecs.OnSkip = skip

	return &Service{
		html:        html,
		perf:        perf,
		now:         now,
		perfRules:   audit.FilterRules(audit.DefaultRules(), audit.PerformanceRuleIDs),
		onPageRules: audit.DefaultOnPageRules(),
		perfRecs:    perfRecs,
		onPageRecs:  onPageRecs,
	}
}

// Validate checks that raw is an absolute http or https URL with a host.
func Validate(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ValidationError{URL: raw, Reason: "malformed"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ValidationError{URL: raw, Reason: "URL must start with http:// or https://"}
	}
	if u.Host == "" {
		return nil, &ValidationError{URL: raw, Reason: "missing host"}
	}
	return u, nil
}

// Run audits pageURL. The HTML and PageSpeed fetches run concurrently and
// either failing fails the audit; no partial result is returned.
func (s *Service) Run(ctx context.Context, pageURL string) (*Result, error) {
	if _, err := Validate(pageURL); err != nil {
		return nil, err
	}

	var (
		meta *htmlmeta.Metadata
		perf *google.PageSpeedResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, err = s.html.Fetch(gctx, pageURL)
		return err
	})
	g.Go(func() error {
		var err error
		perf, err = s.perf.Fetch(gctx, pageURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("audit %s: %w", pageURL, err)
	}
	if perf == nil {
		perf = &google.PageSpeedResult{}
	}

	perfIssues := audit.EvaluateRuleSet(s.perfRules, performanceOnly(perf))
	onPageIssues := audit.EvaluateOnPageRules(meta)

	recs := append(s.perfRecs.Generate(perfIssues), s.onPageRecs.Generate(onPageIssues)...)
	scores := audit.ComputePublicScores(perfIssues, onPageIssues, perf.PerformanceScore)

	return &Result{
		URL:    pageURL,
		Score:  scores.Overall,
		Scores: scores,
		PerformanceMetrics: PerformanceMetrics{
			LCP:             perf.LCP,
			CLS:             perf.CLS,
			FID:             perf.FID,
			LighthouseScore: perf.PerformanceScore,
		},
		HTMLMetadata:    meta,
		Issues:          append(perfIssues, onPageIssues...),
		Recommendations: audit.Reprioritize(recs),
		AuditedAt:       s.now(),
	}, nil
}

// performanceOnly builds a snapshot whose non-performance metrics sit well
// inside every rule threshold, so only the Web Vitals can raise issues.
func performanceOnly(perf *google.PageSpeedResult) *metrics.Snapshot {
	queries := make([]metrics.TopQuery, 10)
	for i := range queries {
		queries[i] = metrics.TopQuery{
			Query:       fmt.Sprintf("query-%d", i),
			Clicks:      10,
			Impressions: 100,
			CTR:         10,
			Position:    5,
		}
	}
	return &metrics.Snapshot{
		Sessions:     1000,
		MobilePct:    60,
		BounceRate:   30,
		Clicks:       100,
		Impressions:  1000,
		CTR:          5,
		AvgPosition:  5,
		IndexedPages: metrics.Int(50),
		LCP:          perf.LCP,
		CLS:          perf.CLS,
		FID:          perf.FID,
		TopQueries:   queries,
	}
}
