package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// WindowDays is the length of the reporting window ending yesterday.
const WindowDays = 28

// ServiceFactory returns the API clients of a Google connection.
type ServiceFactory interface {
	Services(ctx context.Context, connectionID string) (*Services, error)
}

// PageSpeedFetcher returns Core Web Vitals for a URL.
type PageSpeedFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*PageSpeedResult, error)
}

// Source assembles a metrics snapshot for a site from all Google APIs.
type Source struct {
	Clients   ServiceFactory
	PageSpeed PageSpeedFetcher
	Now       func() time.Time
}

// NewSource creates a Source.
func NewSource(clients ServiceFactory, pageSpeed PageSpeedFetcher) *Source {
	return &Source{Clients: clients, PageSpeed: pageSpeed, Now: time.Now}
}

// Window returns the reporting window for now as YYYY-MM-DD dates: the
// WindowDays days ending yesterday.
func Window(now time.Time) (start, end string) {
	e := now.AddDate(0, 0, -1)
	s := e.AddDate(0, 0, -(WindowDays - 1))
	return s.Format("2006-01-02"), e.Format("2006-01-02")
}

// FetchSnapshot fetches GA4, Search Console, top queries and PageSpeed in
// parallel. Any failure fails the whole snapshot.
func (s *Source) FetchSnapshot(ctx context.Context, site *store.Site) (*metrics.Snapshot, error) {
	if !site.SetupComplete() {
		return nil, fmt.Errorf("site %s: incomplete setup", site.ID)
	}

	svcs, err := s.Clients.Services(ctx, *site.GoogleConnectionID)
	if err != nil {
		return nil, fmt.Errorf("google clients for site %s: %w", site.ID, err)
	}

	now := s.Now()
	start, end := Window(now)

	var (
		ga4     *GA4Metrics
		search  *SearchMetrics
		queries []metrics.TopQuery
		perf    *PageSpeedResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ga4, err = FetchGA4Metrics(gctx, svcs.Analytics, *site.GA4PropertyID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		search, err = FetchSearchMetrics(gctx, svcs.Search, *site.GSCSiteURL, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		queries, err = FetchTopQueries(gctx, svcs.Search, *site.GSCSiteURL, start, end, DefaultTopQueries)
		return err
	})
	g.Go(func() error {
		var err error
		perf, err = s.PageSpeed.Fetch(gctx, site.URL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch metrics for site %s: %w", site.ID, err)
	}

	return &metrics.Snapshot{
		SiteID:       site.ID,
		SnapshotDate: now,
		Sessions:     ga4.Sessions,
		MobilePct:    ga4.MobilePct,
		BounceRate:   ga4.BounceRate,
		Clicks:       search.Clicks,
		Impressions:  search.Impressions,
		CTR:          search.CTR,
		AvgPosition:  search.AvgPosition,
		LCP:          perf.LCP,
		CLS:          perf.CLS,
		FID:          perf.FID,
		TopQueries:   queries,
	}, nil
}
