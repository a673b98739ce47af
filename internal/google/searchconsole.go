package google

import (
	"context"
	"math"

	"google.golang.org/api/searchconsole/v1"

	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// DefaultTopQueries is the number of query rows fetched per sync.
const DefaultTopQueries = 20

// SearchMetrics is the Search Console summary of one property.
type SearchMetrics struct {
	Clicks      int
	Impressions int
	CTR         float64 // percent, two decimals
	AvgPosition float64
}

// FetchSearchMetrics returns the property totals over the date range.
func FetchSearchMetrics(ctx context.Context, svc *searchconsole.Service, siteURL, startDate, endDate string) (*SearchMetrics, error) {
	resp, err := svc.Searchanalytics.Query(siteURL, &searchconsole.SearchAnalyticsQueryRequest{
		StartDate: startDate,
		EndDate:   endDate,
		Type:      "web",
	}).Context(ctx).Do()
	if err != nil {
		return nil, upstream("search-console", err)
	}

	m := &SearchMetrics{}
	if len(resp.Rows) > 0 && resp.Rows[0] != nil {
		row := resp.Rows[0]
		m.Clicks = int(math.Round(row.Clicks))
		m.Impressions = int(math.Round(row.Impressions))
		m.CTR = round2(row.Ctr * 100)
		m.AvgPosition = round2(row.Position)
	}
	return m, nil
}

// FetchTopQueries returns up to limit query rows. A non-positive limit
// means DefaultTopQueries.
func FetchTopQueries(ctx context.Context, svc *searchconsole.Service, siteURL, startDate, endDate string, limit int) ([]metrics.TopQuery, error) {
	if limit <= 0 {
		limit = DefaultTopQueries
	}
	resp, err := svc.Searchanalytics.Query(siteURL, &searchconsole.SearchAnalyticsQueryRequest{
		StartDate:  startDate,
		EndDate:    endDate,
		Dimensions: []string{"query"},
		Type:       "web",
		RowLimit:   int64(limit),
	}).Context(ctx).Do()
	if err != nil {
		return nil, upstream("search-console", err)
	}

	queries := make([]metrics.TopQuery, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		if row == nil {
			continue
		}
		q := metrics.TopQuery{
			Clicks:      int(math.Round(row.Clicks)),
			Impressions: int(math.Round(row.Impressions)),
			CTR:         round2(row.Ctr * 100),
			Position:    round2(row.Position),
		}
		if len(row.Keys) > 0 {
			q.Query = row.Keys[0]
		}
		queries = append(queries, q)
	}
	return queries, nil
}
