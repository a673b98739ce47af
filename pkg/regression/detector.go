// Package regression compares two metrics snapshots and flags notable
// period-over-period changes per tracked metric.
package regression

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// Direction says which way a metric should move.
type Direction string

const (
	HigherBetter Direction = "higher_better"
	LowerBetter  Direction = "lower_better"
)

// Type classifies a change relative to the metric's direction.
type Type string

const (
	TypeRegression  Type = "regression"
	TypeImprovement Type = "improvement"
)

// InfoFloor is the absolute percent change above which a change that crosses
// no threshold is still reported, at info severity.
const InfoFloor = 10.0

// TrackedMetric declares one metric the detector compares. Warning and
// Critical are signed percent changes: negative for HigherBetter metrics.
type TrackedMetric struct {
	Key       string
	Label     string
	Direction Direction
	Warning   float64
	Critical  float64
	// Value extracts the metric; ok is false when the snapshot has no value.
	Value func(m *metrics.Snapshot) (v float64, ok bool)
}

// Regression is a notable change of one metric between two snapshots.
type Regression struct {
	Metric        string         `json:"metric"`
	MetricLabel   string         `json:"metric_label"`
	PreviousValue float64        `json:"previous_value"`
	CurrentValue  float64        `json:"current_value"`
	ChangePercent float64        `json:"change_percent"` // one decimal
	Type          Type           `json:"type"`
	Severity      audit.Severity `json:"severity"`
	Message       string         `json:"message"`
}

// DefaultMetrics returns the tracked metric set.
func DefaultMetrics() []TrackedMetric {
	return []TrackedMetric{
		{Key: "sessions", Label: "Sessions", Direction: HigherBetter, Warning: -15, Critical: -30,
			Value: func(m *metrics.Snapshot) (float64, bool) { return float64(m.Sessions), true }},
		{Key: "clicks", Label: "Search Clicks", Direction: HigherBetter, Warning: -15, Critical: -30,
			Value: func(m *metrics.Snapshot) (float64, bool) { return float64(m.Clicks), true }},
		{Key: "impressions", Label: "Search Impressions", Direction: HigherBetter, Warning: -20, Critical: -40,
			Value: func(m *metrics.Snapshot) (float64, bool) { return float64(m.Impressions), true }},
		{Key: "ctr", Label: "Click-Through Rate", Direction: HigherBetter, Warning: -15, Critical: -30,
			Value: func(m *metrics.Snapshot) (float64, bool) { return m.CTR, true }},
		{Key: "avgPosition", Label: "Average Position", Direction: LowerBetter, Warning: 15, Critical: 30,
			Value: func(m *metrics.Snapshot) (float64, bool) { return m.AvgPosition, true }},
		{Key: "mobilePercent", Label: "Mobile Traffic", Direction: HigherBetter, Warning: -10, Critical: -25,
			Value: func(m *metrics.Snapshot) (float64, bool) { return m.MobilePct, true }},
		{Key: "bounceRate", Label: "Bounce Rate", Direction: LowerBetter, Warning: 15, Critical: 30,
			Value: func(m *metrics.Snapshot) (float64, bool) { return m.BounceRate, true }},
	}
}

// SkipReason explains why a metric produced no Regression.
type SkipReason string

const (
	SkipMissingValue   SkipReason = "missing value"
	SkipZeroPrevious   SkipReason = "previous value is zero"
	SkipBelowInfoFloor SkipReason = "change below info floor"
)

// Detector compares snapshots over a set of tracked metrics.
type Detector struct {
	Metrics []TrackedMetric
	// OnSkip, if set, is called for every metric that yields no Regression.
	OnSkip func(metric string, reason SkipReason)
}

// NewDetector returns a Detector over the default tracked metrics.
func NewDetector() *Detector {
	return &Detector{Metrics: DefaultMetrics()}
}

// Detect compares current against previous and returns the notable changes,
// regressions first and then by severity.
func (d *Detector) Detect(current, previous *metrics.Snapshot) []Regression {
	out := []Regression{}
	if current == nil || previous == nil {
		return out
	}

	for _, tm := range d.Metrics {
		cur, okCur := tm.Value(current)
		prev, okPrev := tm.Value(previous)
		if !okCur || !okPrev || math.IsNaN(cur) || math.IsNaN(prev) {
			d.skip(tm.Key, SkipMissingValue)
			continue
		}
		if prev == 0 {
			d.skip(tm.Key, SkipZeroPrevious)
			continue
		}

		change := round1((cur - prev) / math.Abs(prev) * 100)

		typ := TypeImprovement
		if (tm.Direction == HigherBetter && change < 0) || (tm.Direction == LowerBetter && change > 0) {
			typ = TypeRegression
		}

		sev, ok := tm.classify(change)
		if !ok {
			d.skip(tm.Key, SkipBelowInfoFloor)
			continue
		}

		out = append(out, Regression{
			Metric:        tm.Key,
			MetricLabel:   tm.Label,
			PreviousValue: prev,
			CurrentValue:  cur,
			ChangePercent: change,
			Type:          typ,
			Severity:      sev,
			Message:       message(tm.Label, change, prev, cur),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type == TypeRegression
		}
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}

func (tm TrackedMetric) classify(change float64) (audit.Severity, bool) {
	switch tm.Direction {
	case HigherBetter:
		if change <= tm.Critical {
			return audit.SeverityCritical, true
		}
		if change <= tm.Warning {
			return audit.SeverityWarning, true
		}
	case LowerBetter:
		if change >= tm.Critical {
			return audit.SeverityCritical, true
		}
		if change >= tm.Warning {
			return audit.SeverityWarning, true
		}
	}
	if math.Abs(change) > InfoFloor {
		return audit.SeverityInfo, true
	}
	return "", false
}

func (d *Detector) skip(metric string, reason SkipReason) {
	if d.OnSkip != nil {
		d.OnSkip(metric, reason)
	}
}

// DetectRegressions runs the default detector.
func DetectRegressions(current, previous *metrics.Snapshot) []Regression {
	return NewDetector().Detect(current, previous)
}

// Significant keeps the regressions that warrant an alert: regression type
// with critical or warning severity.
func Significant(regs []Regression) []Regression {
	var out []Regression
	for _, r := range regs {
		if r.Type == TypeRegression && (r.Severity == audit.SeverityCritical || r.Severity == audit.SeverityWarning) {
			out = append(out, r)
		}
	}
	return out
}

// message renders e.g. "Sessions decreased by 50.0% (100 → 50)".
func message(label string, change, prev, cur float64) string {
	verb := "increased"
	if change < 0 {
		verb = "decreased"
	}
	return fmt.Sprintf("%s %s by %.1f%% (%s → %s)", label, verb, math.Abs(change), formatValue(prev), formatValue(cur))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
