// Package surface defines output rendering for audit reports and
// regressions. Implementations handle different output targets: terminal
// and JSON.
package surface

import (
	"io"

	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/regression"
)

// Renderer produces formatted output from audit results.
type Renderer interface {
	// RenderReport writes one audit report.
	RenderReport(w io.Writer, r *Report) error
	// RenderRegressions writes a snapshot comparison.
	RenderRegressions(w io.Writer, regs []regression.Regression) error
}

// CategoryScore is one named sub-score of a report.
type CategoryScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Measurement is a raw value shown alongside the scores, e.g. "LCP 3.2s".
type Measurement struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Report is the renderer-neutral view of either a snapshot audit or a
// public audit.
type Report struct {
	Target          string                 `json:"target"`
	Overall         int                    `json:"overall"`
	Categories      []CategoryScore        `json:"categories"`
	Measurements    []Measurement          `json:"measurements,omitempty"`
	Issues          []audit.Issue          `json:"issues"`
	Recommendations []audit.Recommendation `json:"recommendations"`
	Checklist       []audit.ChecklistItem  `json:"checklist,omitempty"`
}

// FromScores builds a report for a snapshot audit.
func FromScores(target string, s audit.Scores, issues []audit.Issue, recs []audit.Recommendation) *Report {
	return &Report{
		Target:  target,
		Overall: s.Overall,
		Categories: []CategoryScore{
			{Name: "Performance", Score: s.Performance},
			{Name: "Content", Score: s.Content},
			{Name: "Technical", Score: s.Technical},
			{Name: "Local", Score: s.Local},
		},
		Issues:          issues,
		Recommendations: recs,
	}
}

// FromPublicScores builds a report for a public audit.
func FromPublicScores(target string, s audit.PublicScores, issues []audit.Issue, recs []audit.Recommendation) *Report {
	return &Report{
		Target:  target,
		Overall: s.Overall,
		Categories: []CategoryScore{
			{Name: "Performance", Score: s.Performance},
			{Name: "On-page", Score: s.OnPage},
		},
		Issues:          issues,
		Recommendations: recs,
	}
}

// ForOutput returns the renderer for an --output flag value.
func ForOutput(output string) Renderer {
	if output == "json" {
		return &JSONRenderer{}
	}
	return &TerminalRenderer{}
}
