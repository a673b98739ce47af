package publicaudit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seoauditor/seoauditor/internal/google"
	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

type fakeHTML struct {
	meta  *htmlmeta.Metadata
	err   error
	calls int32
}

func (f *fakeHTML) Fetch(ctx context.Context, pageURL string) (*htmlmeta.Metadata, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.meta, f.err
}

type fakePerf struct {
	res   *google.PageSpeedResult
	err   error
	calls int32
}

func (f *fakePerf) Fetch(ctx context.Context, pageURL string) (*google.PageSpeedResult, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.res, f.err
}

func str(s string) *string { return &s }

func cleanPage() *htmlmeta.Metadata {
	title := "Best Plumber in Springfield - Acme Plumbing"
	desc := strings.Repeat("d", 120)
	return &htmlmeta.Metadata{
		Title:                 &title,
		TitleLength:           len(title),
		MetaDescription:       &desc,
		MetaDescriptionLength: len(desc),
		H1Count:               1,
		FirstH1:               str("Acme Plumbing"),
		HasViewport:           true,
		HasCanonical:          true,
		HasStructuredData:     true,
		IsHTTPS:               true,
	}
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestRun_SlowPage(t *testing.T) {
	html := &fakeHTML{meta: cleanPage()}
	perf := &fakePerf{res: &google.PageSpeedResult{
		LCP:              metrics.Float(3200),
		CLS:              metrics.Float(0.15),
		FID:              metrics.Float(50),
		PerformanceScore: metrics.Float(45),
	}}
	svc := NewService(html, perf, func() time.Time { return fixedNow })

	res, err := svc.Run(context.Background(), "https://acme-plumbing.example/")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// slow-lcp (30) + poor-cls (15) leaves 55, averaged with lighthouse 45.
	if res.Scores.Performance != 50 || res.Scores.OnPage != 100 || res.Score != 75 {
		t.Errorf("scores = %+v, score %d; want 50/100/75", res.Scores, res.Score)
	}
	if len(res.Issues) != 2 || res.Issues[0].RuleID != audit.RuleSlowLCP || res.Issues[1].RuleID != audit.RulePoorCLS {
		t.Errorf("issues = %+v", res.Issues)
	}
	if len(res.Recommendations) != 2 || res.Recommendations[0].Priority != 1 || res.Recommendations[1].Priority != 2 {
		t.Errorf("recommendations = %+v", res.Recommendations)
	}
	if !res.AuditedAt.Equal(fixedNow) {
		t.Errorf("AuditedAt = %v", res.AuditedAt)
	}
	if res.PerformanceMetrics.LighthouseScore == nil || *res.PerformanceMetrics.LighthouseScore != 45 {
		t.Errorf("lighthouse = %v", res.PerformanceMetrics.LighthouseScore)
	}
	if atomic.LoadInt32(&html.calls) != 1 || atomic.LoadInt32(&perf.calls) != 1 {
		t.Error("each fetch should run exactly once")
	}
}

func TestRun_OnlyPerformanceRulesFire(t *testing.T) {
	// No field data at all: the synthesized metrics must not trip any of the
	// non-performance rules.
	svc := NewService(&fakeHTML{meta: cleanPage()}, &fakePerf{res: &google.PageSpeedResult{}}, nil)
	res, err := svc.Run(context.Background(), "https://acme-plumbing.example/")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Issues) != 0 || res.Score != 100 {
		t.Errorf("issues = %+v, score = %d", res.Issues, res.Score)
	}
	if res.Issues == nil || res.Recommendations == nil {
		t.Error("empty results should be non-nil slices")
	}
}

func TestRun_MergedRecommendationsReprioritized(t *testing.T) {
	meta := cleanPage()
	meta.H1Count = 0
	meta.FirstH1 = nil
	meta.HasCanonical = false

	svc := NewService(&fakeHTML{meta: meta}, &fakePerf{res: &google.PageSpeedResult{FID: metrics.Float(180)}}, nil)
	res, err := svc.Run(context.Background(), "https://acme-plumbing.example/")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{audit.RuleSlowFID, audit.RuleMissingH1, audit.RuleNoCanonical}
	if len(res.Recommendations) != len(want) {
		t.Fatalf("got %d recommendations, want %d", len(res.Recommendations), len(want))
	}
	for i, rec := range res.Recommendations {
		if rec.Priority != i+1 {
			t.Errorf("rec %d priority = %d", i, rec.Priority)
		}
		if rec.RelatedIssues[0] != want[i] {
			t.Errorf("rec %d = %s, want %s", i, rec.RelatedIssues[0], want[i])
		}
	}
	// perf 100-15=85, on-page 100-15-8=77, overall round(81) = 81.
	if res.Scores.Performance != 85 || res.Scores.OnPage != 77 || res.Score != 81 {
		t.Errorf("scores = %+v", res.Scores)
	}
}

func TestRun_Validation(t *testing.T) {
	tests := []string{"", "acme-plumbing.example", "ftp://acme.example/", "https://", "mailto:a@b.example", "http://%zz"}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			html, perf := &fakeHTML{meta: cleanPage()}, &fakePerf{res: &google.PageSpeedResult{}}
			_, err := NewService(html, perf, nil).Run(context.Background(), raw)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if html.calls != 0 || perf.calls != 0 {
				t.Error("no fetch should run for invalid input")
			}
		})
	}
}

func TestRun_FetchFailures(t *testing.T) {
	unreachable := &htmlmeta.FetchError{URL: "https://down.example/", Err: fmt.Errorf("dial tcp: no such host")}
	tests := []struct {
		name string
		html *fakeHTML
		perf *fakePerf
	}{
		{"html unreachable", &fakeHTML{err: unreachable}, &fakePerf{res: &google.PageSpeedResult{}}},
		{"pagespeed failed", &fakeHTML{meta: cleanPage()}, &fakePerf{err: &google.UpstreamError{Source: "pagespeed", Err: errors.New("500")}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewService(tc.html, tc.perf, nil).Run(context.Background(), "https://down.example/")
			if res != nil {
				t.Errorf("partial result returned: %+v", res)
			}
			if !errors.Is(err, htmlmeta.ErrUnreachable) {
				t.Errorf("err = %v, want ErrUnreachable", err)
			}
		})
	}
}
