// Package audit implements the seoauditor rule engine: metric and on-page
// rules that produce issues, the recommendation generator, and the
// penalty-based score aggregator.
package audit

// Severity indicates how concerning an issue is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities for sorting: critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Category is one of the four score buckets.
type Category string

const (
	CategoryPerformance Category = "performance"
	CategoryContent     Category = "content"
	CategoryTechnical   Category = "technical"
	CategoryLocal       Category = "local"
)

// Categories lists every score bucket in display order.
var Categories = []Category{CategoryPerformance, CategoryContent, CategoryTechnical, CategoryLocal}

// Issue is a single rule violation found in one evaluation.
type Issue struct {
	RuleID       string   `json:"rule_id"`
	Severity     Severity `json:"severity"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Metric       string   `json:"metric"`
	CurrentValue float64  `json:"current_value"`
	Threshold    float64  `json:"threshold"`
}

// Recommendation is a prioritized action bundle addressing one rule.
type Recommendation struct {
	Priority      int      `json:"priority"` // 1-based, contiguous
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ActionItems   []string `json:"action_items"`
	RelatedIssues []string `json:"related_issues"` // rule IDs
}

// Scores holds the per-category scores and their rounded mean.
type Scores struct {
	Performance int `json:"performance"`
	Content     int `json:"content"`
	Technical   int `json:"technical"`
	Local       int `json:"local"`
	Overall     int `json:"overall"`
}

// ChecklistItem is one entry of the onboarding checklist attached to audits.
type ChecklistItem struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Completed bool     `json:"completed"`
	Category  Category `json:"category"`
}
