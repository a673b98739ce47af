package audit

import (
	"fmt"
	"strconv"

	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// Rule is the interface that every metric rule implements.
type Rule interface {
	// ID returns the unique rule identifier, e.g. "low-ctr".
	ID() string
	// Severity returns the severity of the issue the rule produces.
	Severity() Severity
	// Evaluate returns an issue when the snapshot violates the rule, or nil.
	Evaluate(m *metrics.Snapshot) *Issue
}

// metricRule is a Rule backed by a predicate over a snapshot.
type metricRule struct {
	id       string
	severity Severity
	eval     func(m *metrics.Snapshot) *Issue
}

func (r *metricRule) ID() string         { return r.id }
func (r *metricRule) Severity() Severity { return r.severity }

func (r *metricRule) Evaluate(m *metrics.Snapshot) *Issue {
	if m == nil {
		return nil
	}
	return r.eval(m)
}

// Rule identifiers of the metric catalog.
const (
	RuleMobileTrafficLow = "mobile-traffic-low"
	RuleSlowLCP          = "slow-lcp"
	RulePoorCLS          = "poor-cls"
	RuleSlowFID          = "slow-fid"
	RuleLowCTR           = "low-ctr"
	RuleHighBounceRate   = "high-bounce-rate"
	RulePoorPosition     = "poor-position"
	RuleLowSessions      = "low-sessions"
	RuleLowImpressions   = "low-impressions"
	RuleIndexingLow      = "indexing-low"
	RuleNoClicks         = "no-clicks"
	RuleFewQueries       = "few-queries"
)

// ruleCategories is the static rule -> category lookup used by the aggregator.
var ruleCategories = map[string]Category{
	RuleMobileTrafficLow: CategoryPerformance,
	RuleSlowLCP:          CategoryPerformance,
	RulePoorCLS:          CategoryPerformance,
	RuleSlowFID:          CategoryPerformance,
	RuleLowCTR:           CategoryContent,
	RuleHighBounceRate:   CategoryContent,
	RulePoorPosition:     CategoryContent,
	RuleFewQueries:       CategoryContent,
	RuleIndexingLow:      CategoryTechnical,
	RuleNoClicks:         CategoryTechnical,
	RuleLowSessions:      CategoryLocal,
	RuleLowImpressions:   CategoryLocal,
}

// CategoryFor returns the score bucket for a rule ID.
func CategoryFor(ruleID string) (Category, bool) {
	c, ok := ruleCategories[ruleID]
	return c, ok
}

// PerformanceRuleIDs are the metric rules that only need PageSpeed data and
// can therefore run in the live public audit.
var PerformanceRuleIDs = map[string]bool{
	RuleSlowLCP: true,
	RulePoorCLS: true,
	RuleSlowFID: true,
}

// DefaultRules returns the metric rule catalog in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		&metricRule{id: RuleMobileTrafficLow, severity: SeverityCritical, eval: func(m *metrics.Snapshot) *Issue {
			if m.MobilePct >= 50 {
				return nil
			}
			return &Issue{
				RuleID:       RuleMobileTrafficLow,
				Severity:     SeverityCritical,
				Title:        "Low Mobile Traffic",
				Description:  "Less than 50% of your traffic comes from mobile devices. In 2026, Google prioritizes mobile-first indexing.",
				Metric:       "mobilePercent",
				CurrentValue: m.MobilePct,
				Threshold:    50,
			}
		}},
		&metricRule{id: RuleSlowLCP, severity: SeverityCritical, eval: func(m *metrics.Snapshot) *Issue {
			if m.LCP == nil || *m.LCP <= 2500 {
				return nil
			}
			return &Issue{
				RuleID:       RuleSlowLCP,
				Severity:     SeverityCritical,
				Title:        "Slow Page Load (LCP)",
				Description:  fmt.Sprintf("Your LCP is %.1fs. Google recommends under 2.5s for good user experience.", *m.LCP/1000),
				Metric:       "lcp",
				CurrentValue: *m.LCP,
				Threshold:    2500,
			}
		}},
		&metricRule{id: RulePoorCLS, severity: SeverityWarning, eval: func(m *metrics.Snapshot) *Issue {
			if m.CLS == nil || *m.CLS <= 0.1 {
				return nil
			}
			return &Issue{
				RuleID:       RulePoorCLS,
				Severity:     SeverityWarning,
				Title:        "High Cumulative Layout Shift",
				Description:  fmt.Sprintf("Your CLS is %.2f. Google recommends under 0.1 for a stable visual experience.", *m.CLS),
				Metric:       "cls",
				CurrentValue: *m.CLS,
				Threshold:    0.1,
			}
		}},
		&metricRule{id: RuleSlowFID, severity: SeverityWarning, eval: func(m *metrics.Snapshot) *Issue {
			if m.FID == nil || *m.FID <= 100 {
				return nil
			}
			return &Issue{
				RuleID:       RuleSlowFID,
				Severity:     SeverityWarning,
				Title:        "Slow Interactivity (FID)",
				Description:  fmt.Sprintf("Your FID is %sms. Google recommends under 100ms for responsive interactions.", formatNumber(*m.FID)),
				Metric:       "fid",
				CurrentValue: *m.FID,
				Threshold:    100,
			}
		}},
		&metricRule{id: RuleLowCTR, severity: SeverityCritical, eval: func(m *metrics.Snapshot) *Issue {
			if m.CTR >= 2 {
				return nil
			}
			return &Issue{
				RuleID:       RuleLowCTR,
				Severity:     SeverityCritical,
				Title:        "Low Click-Through Rate",
				Description:  fmt.Sprintf("Your average CTR is %.1f%%. Aim for at least 2%% to maximize search visibility.", m.CTR),
				Metric:       "ctr",
				CurrentValue: m.CTR,
				Threshold:    2,
			}
		}},
		&metricRule{id: RuleHighBounceRate, severity: SeverityWarning, eval: func(m *metrics.Snapshot) *Issue {
			if m.BounceRate <= 70 {
				return nil
			}
			return &Issue{
				RuleID:       RuleHighBounceRate,
				Severity:     SeverityWarning,
				Title:        "High Bounce Rate",
				Description:  fmt.Sprintf("Your bounce rate is %.0f%%. This suggests visitors aren't finding what they need.", m.BounceRate),
				Metric:       "bounceRate",
				CurrentValue: m.BounceRate,
				Threshold:    70,
			}
		}},
		&metricRule{id: RulePoorPosition, severity: SeverityWarning, eval: func(m *metrics.Snapshot) *Issue {
			if m.AvgPosition <= 20 {
				return nil
			}
			return &Issue{
				RuleID:       RulePoorPosition,
				Severity:     SeverityWarning,
				Title:        "Low Average Search Position",
				Description:  fmt.Sprintf("Your average position is %.1f. Most clicks go to top 10 results.", m.AvgPosition),
				Metric:       "avgPosition",
				CurrentValue: m.AvgPosition,
				Threshold:    20,
			}
		}},
		&metricRule{id: RuleLowSessions, severity: SeverityInfo, eval: func(m *metrics.Snapshot) *Issue {
			if m.Sessions >= 100 {
				return nil
			}
			return &Issue{
				RuleID:       RuleLowSessions,
				Severity:     SeverityInfo,
				Title:        "Low Traffic Volume",
				Description:  fmt.Sprintf("Only %d sessions in the last 28 days. Local businesses typically need 500+ monthly sessions.", m.Sessions),
				Metric:       "sessions",
				CurrentValue: float64(m.Sessions),
				Threshold:    100,
			}
		}},
		&metricRule{id: RuleLowImpressions, severity: SeverityWarning, eval: func(m *metrics.Snapshot) *Issue {
			if m.Impressions >= 500 {
				return nil
			}
			return &Issue{
				RuleID:       RuleLowImpressions,
				Severity:     SeverityWarning,
				Title:        "Low Search Impressions",
				Description:  fmt.Sprintf("Your site appeared only %d times in search. You may need more local content.", m.Impressions),
				Metric:       "impressions",
				CurrentValue: float64(m.Impressions),
				Threshold:    500,
			}
		}},
		&metricRule{id: RuleIndexingLow, severity: SeverityInfo, eval: func(m *metrics.Snapshot) *Issue {
			if m.IndexedPages == nil || *m.IndexedPages >= 10 {
				return nil
			}
			return &Issue{
				RuleID:       RuleIndexingLow,
				Severity:     SeverityInfo,
				Title:        "Few Indexed Pages",
				Description:  fmt.Sprintf("Only %d pages are being indexed. Consider adding more content pages.", *m.IndexedPages),
				Metric:       "indexedPages",
				CurrentValue: float64(*m.IndexedPages),
				Threshold:    10,
			}
		}},
		&metricRule{id: RuleNoClicks, severity: SeverityCritical, eval: func(m *metrics.Snapshot) *Issue {
			if m.Clicks != 0 {
				return nil
			}
			return &Issue{
				RuleID:       RuleNoClicks,
				Severity:     SeverityCritical,
				Title:        "No Search Clicks",
				Description:  "Your site received zero clicks from search in the last 28 days. This is a critical issue.",
				Metric:       "clicks",
				CurrentValue: 0,
				Threshold:    1,
			}
		}},
		&metricRule{id: RuleFewQueries, severity: SeverityInfo, eval: func(m *metrics.Snapshot) *Issue {
			if len(m.TopQueries) >= 5 {
				return nil
			}
			return &Issue{
				RuleID:       RuleFewQueries,
				Severity:     SeverityInfo,
				Title:        "Few Ranking Keywords",
				Description:  fmt.Sprintf("Your site ranks for only %d queries. Expanding content can improve visibility.", len(m.TopQueries)),
				Metric:       "topQueries",
				CurrentValue: float64(len(m.TopQueries)),
				Threshold:    5,
			}
		}},
	}
}

// EvaluateRules runs the default metric catalog against a snapshot.
func EvaluateRules(m *metrics.Snapshot) []Issue {
	return EvaluateRuleSet(DefaultRules(), m)
}

// EvaluateRuleSet runs the given rules in order and collects their issues.
func EvaluateRuleSet(rules []Rule, m *metrics.Snapshot) []Issue {
	issues := []Issue{}
	for _, r := range rules {
		if issue := r.Evaluate(m); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}

// FilterRules keeps the rules whose ID is in ids, preserving order.
func FilterRules(rules []Rule, ids map[string]bool) []Rule {
	var out []Rule
	for _, r := range rules {
		if ids[r.ID()] {
			out = append(out, r)
		}
	}
	return out
}

// formatNumber prints a float without trailing zeros (150 -> "150", 2.5 -> "2.5").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
