package audit

import "math"

// PenaltyScale is the number of points each severity subtracts from 100.
type PenaltyScale struct {
	Critical int
	Warning  int
	Info     int
}

// Penalty returns the points deducted for one issue of severity s.
func (p PenaltyScale) Penalty(s Severity) int {
	switch s {
	case SeverityCritical:
		return p.Critical
	case SeverityWarning:
		return p.Warning
	default:
		return p.Info
	}
}

// The authenticated audit and the public performance score deduct on the
// standard scale; public on-page issues deduct on the lighter scale.
var (
	StandardPenalties = PenaltyScale{Critical: 30, Warning: 15, Info: 5}
	OnPagePenalties   = PenaltyScale{Critical: 15, Warning: 8, Info: 3}
)

// PenaltyScore returns 100 minus the summed penalties, floored at 0.
func PenaltyScore(issues []Issue, scale PenaltyScale) int {
	score := 100
	for _, issue := range issues {
		score -= scale.Penalty(issue.Severity)
	}
	if score < 0 {
		return 0
	}
	return score
}

// ComputeScores buckets issues by rule category and scores each bucket on
// the standard scale. Issues from rules without a category are ignored.
func ComputeScores(issues []Issue) Scores {
	byCategory := make(map[Category][]Issue)
	for _, issue := range issues {
		if c, ok := CategoryFor(issue.RuleID); ok {
			byCategory[c] = append(byCategory[c], issue)
		}
	}

	s := Scores{
		Performance: PenaltyScore(byCategory[CategoryPerformance], StandardPenalties),
		Content:     PenaltyScore(byCategory[CategoryContent], StandardPenalties),
		Technical:   PenaltyScore(byCategory[CategoryTechnical], StandardPenalties),
		Local:       PenaltyScore(byCategory[CategoryLocal], StandardPenalties),
	}
	s.Overall = roundHalfUp(float64(s.Performance+s.Content+s.Technical+s.Local) / 4)
	return s
}

// PublicScores is the score breakdown of a live public audit.
type PublicScores struct {
	Performance int `json:"performance"`
	OnPage      int `json:"on_page"`
	Overall     int `json:"overall"`
}

// ComputePublicScores scores performance issues on the standard scale and
// on-page issues on the on-page scale. A non-nil lighthouse score (0-100) is
// averaged into the performance score.
func ComputePublicScores(perfIssues, onPageIssues []Issue, lighthouse *float64) PublicScores {
	perf := PenaltyScore(perfIssues, StandardPenalties)
	if lighthouse != nil {
		perf = roundHalfUp((float64(perf) + *lighthouse) / 2)
	}
	onPage := PenaltyScore(onPageIssues, OnPagePenalties)
	return PublicScores{
		Performance: perf,
		OnPage:      onPage,
		Overall:     roundHalfUp(float64(perf+onPage) / 2),
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
