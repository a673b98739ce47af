package google

import (
	"context"
	"math"
	"strconv"

	"google.golang.org/api/analyticsdata/v1beta"
)

// GA4Metrics is the traffic summary of one GA4 property over a date range.
type GA4Metrics struct {
	Sessions   int
	MobilePct  float64 // whole percent
	BounceRate float64 // percent, two decimals
}

// FetchGA4Metrics reports sessions and bounce rate by device category and
// folds them into a single summary. Dates are YYYY-MM-DD.
func FetchGA4Metrics(ctx context.Context, svc *analyticsdata.Service, propertyID, startDate, endDate string) (*GA4Metrics, error) {
	resp, err := svc.Properties.RunReport("properties/"+propertyID, &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{StartDate: startDate, EndDate: endDate}},
		Metrics: []*analyticsdata.Metric{
			{Name: "sessions"},
			{Name: "bounceRate"},
		},
		Dimensions: []*analyticsdata.Dimension{{Name: "deviceCategory"}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, upstream("ga4", err)
	}

	var total, mobile int
	var weightedBounce float64
	for _, row := range resp.Rows {
		sessions, _ := strconv.Atoi(metricValue(row, 0))
		bounce, _ := strconv.ParseFloat(metricValue(row, 1), 64)

		total += sessions
		if len(row.DimensionValues) > 0 && row.DimensionValues[0] != nil && row.DimensionValues[0].Value == "mobile" {
			mobile += sessions
		}
		weightedBounce += bounce * float64(sessions)
	}

	m := &GA4Metrics{Sessions: total}
	if total > 0 {
		m.MobilePct = math.Round(float64(mobile) / float64(total) * 100)
		// GA4 reports bounce rate as a fraction.
		m.BounceRate = round2(weightedBounce / float64(total) * 100)
	}
	return m, nil
}

func metricValue(row *analyticsdata.Row, i int) string {
	if row == nil || i >= len(row.MetricValues) || row.MetricValues[i] == nil {
		return ""
	}
	return row.MetricValues[i].Value
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
