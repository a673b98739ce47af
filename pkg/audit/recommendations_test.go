package audit_test

import (
	"reflect"
	"testing"

	"github.com/seoauditor/seoauditor/pkg/audit"
)

func TestGenerateRecommendations_SeverityOrder(t *testing.T) {
	issues := []audit.Issue{
		{RuleID: audit.RuleFewQueries, Severity: audit.SeverityInfo},
		{RuleID: audit.RulePoorCLS, Severity: audit.SeverityWarning},
		{RuleID: audit.RuleLowCTR, Severity: audit.SeverityCritical},
		{RuleID: audit.RuleHighBounceRate, Severity: audit.SeverityWarning},
		{RuleID: audit.RuleNoClicks, Severity: audit.SeverityCritical},
	}

	recs := audit.GenerateRecommendations(issues)

	var related []string
	for i, r := range recs {
		if r.Priority != i+1 {
			t.Errorf("recs[%d].Priority = %d, want %d", i, r.Priority, i+1)
		}
		related = append(related, r.RelatedIssues...)
	}
	// Ties keep input order.
	want := []string{audit.RuleLowCTR, audit.RuleNoClicks, audit.RulePoorCLS, audit.RuleHighBounceRate, audit.RuleFewQueries}
	if !reflect.DeepEqual(related, want) {
		t.Errorf("order = %v, want %v", related, want)
	}
	if recs[0].Title != "Improve Click-Through Rate" {
		t.Errorf("first title = %q", recs[0].Title)
	}
}

func TestGenerateRecommendations_Dedup(t *testing.T) {
	issues := []audit.Issue{
		{RuleID: audit.RuleSlowLCP, Severity: audit.SeverityCritical},
		{RuleID: audit.RuleSlowLCP, Severity: audit.SeverityCritical},
		{RuleID: audit.RulePoorCLS, Severity: audit.SeverityWarning},
	}
	recs := audit.GenerateRecommendations(issues)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	seen := map[string]bool{}
	for _, r := range recs {
		for _, id := range r.RelatedIssues {
			if seen[id] {
				t.Errorf("duplicate recommendation for %s", id)
			}
			seen[id] = true
		}
	}
}

func TestGenerateRecommendations_UnmappedSkipped(t *testing.T) {
	var skipped []string
	r := audit.NewRecommender(audit.MetricTemplates)
	r.OnSkip = func(id string) { skipped = append(skipped, id) }

	recs := r.Generate([]audit.Issue{
		{RuleID: "unknown-rule", Severity: audit.SeverityCritical},
		{RuleID: audit.RuleLowSessions, Severity: audit.SeverityInfo},
	})

	if len(recs) != 1 || recs[0].Priority != 1 || recs[0].RelatedIssues[0] != audit.RuleLowSessions {
		t.Errorf("recs = %+v, want only low-sessions at priority 1", recs)
	}
	if !reflect.DeepEqual(skipped, []string{"unknown-rule"}) {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestGenerateRecommendations_Empty(t *testing.T) {
	recs := audit.GenerateRecommendations(nil)
	if recs == nil || len(recs) != 0 {
		t.Errorf("recs = %#v, want empty non-nil slice", recs)
	}
}

func TestGenerateRecommendations_DoesNotMutateInput(t *testing.T) {
	issues := []audit.Issue{
		{RuleID: audit.RuleFewQueries, Severity: audit.SeverityInfo},
		{RuleID: audit.RuleLowCTR, Severity: audit.SeverityCritical},
	}
	audit.GenerateRecommendations(issues)
	if issues[0].RuleID != audit.RuleFewQueries {
		t.Error("input slice was reordered")
	}
}

func TestTemplatesCoverCatalogs(t *testing.T) {
	for _, r := range audit.DefaultRules() {
		if _, ok := audit.MetricTemplates[r.ID()]; !ok {
			t.Errorf("metric rule %s has no template", r.ID())
		}
	}
	for _, r := range audit.DefaultOnPageRules() {
		if _, ok := audit.OnPageTemplates[r.ID()]; !ok {
			t.Errorf("on-page rule %s has no template", r.ID())
		}
	}
}

func TestTopNAndReprioritize(t *testing.T) {
	perf := audit.GenerateRecommendations([]audit.Issue{{RuleID: audit.RuleSlowLCP, Severity: audit.SeverityCritical}})
	onPage := audit.GenerateOnPageRecommendations([]audit.Issue{
		{RuleID: audit.RuleMissingTitle, Severity: audit.SeverityCritical},
		{RuleID: audit.RuleNoCanonical, Severity: audit.SeverityWarning},
	})

	merged := audit.Reprioritize(append(perf, onPage...))
	for i, r := range merged {
		if r.Priority != i+1 {
			t.Errorf("merged[%d].Priority = %d", i, r.Priority)
		}
	}
	if got := audit.TopN(merged, 2); len(got) != 2 {
		t.Errorf("TopN(2) len = %d", len(got))
	}
	if got := audit.TopN(merged, 10); len(got) != 3 {
		t.Errorf("TopN(10) len = %d", len(got))
	}
}

func TestPipelineDeterministic(t *testing.T) {
	m := healthy()
	m.CTR = 0.4
	m.MobilePct = 10

	run := func() ([]audit.Recommendation, audit.Scores) {
		issues := audit.EvaluateRules(m)
		return audit.GenerateRecommendations(issues), audit.ComputeScores(issues)
	}
	r1, s1 := run()
	r2, s2 := run()
	if !reflect.DeepEqual(r1, r2) || s1 != s2 {
		t.Error("pipeline output differs between identical runs")
	}
}
