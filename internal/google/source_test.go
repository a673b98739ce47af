package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"

	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

const ga4Body = `{
  "rows": [
    {"dimensionValues": [{"value": "mobile"}],  "metricValues": [{"value": "600"}, {"value": "0.5"}]},
    {"dimensionValues": [{"value": "desktop"}], "metricValues": [{"value": "300"}, {"value": "0.2"}]},
    {"dimensionValues": [{"value": "tablet"}],  "metricValues": [{"value": "100"}, {"value": "0.3"}]}
  ]
}`

const gscTotalsBody = `{"rows": [{"clicks": 120.0, "impressions": 4000.0, "ctr": 0.03, "position": 8.456}]}`

const gscQueriesBody = `{
  "rows": [
    {"keys": ["plumber near me"], "clicks": 40, "impressions": 900, "ctr": 0.04444, "position": 3.21},
    {"keys": ["emergency plumber"], "clicks": 12, "impressions": 300, "ctr": 0.04, "position": 6.5}
  ]
}`

type googleAPI struct {
	t          *testing.T
	gscFail    bool
	gotDates   []string
	gotRowLims []int64
}

func (g *googleAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, ":runReport"):
		var req analyticsdata.RunReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			g.t.Errorf("decode runReport: %v", err)
		}
		if len(req.DateRanges) == 1 {
			g.gotDates = append(g.gotDates, req.DateRanges[0].StartDate, req.DateRanges[0].EndDate)
		}
		w.Write([]byte(ga4Body))
	case strings.Contains(r.URL.Path, "searchAnalytics/query"):
		if g.gscFail {
			http.Error(w, `{"error": {"code": 403, "message": "forbidden"}}`, http.StatusForbidden)
			return
		}
		var req searchconsole.SearchAnalyticsQueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			g.t.Errorf("decode query: %v", err)
		}
		if len(req.Dimensions) == 1 && req.Dimensions[0] == "query" {
			g.gotRowLims = append(g.gotRowLims, req.RowLimit)
			w.Write([]byte(gscQueriesBody))
			return
		}
		w.Write([]byte(gscTotalsBody))
	default:
		g.t.Errorf("unexpected request %s", r.URL.Path)
		http.NotFound(w, r)
	}
}

type staticServices struct {
	svcs *Services
	err  error
}

func (s staticServices) Services(ctx context.Context, connectionID string) (*Services, error) {
	return s.svcs, s.err
}

type fakePageSpeed struct {
	res *PageSpeedResult
	err error
}

func (f fakePageSpeed) Fetch(ctx context.Context, pageURL string) (*PageSpeedResult, error) {
	return f.res, f.err
}

func newTestServices(t *testing.T, api *googleAPI) *Services {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts := []option.ClientOption{option.WithEndpoint(srv.URL + "/"), option.WithHTTPClient(srv.Client())}
	analytics, err := analyticsdata.NewService(context.Background(), opts...)
	if err != nil {
		t.Fatalf("analytics service: %v", err)
	}
	search, err := searchconsole.NewService(context.Background(), opts...)
	if err != nil {
		t.Fatalf("search console service: %v", err)
	}
	return &Services{Analytics: analytics, Search: search}
}

func strPtr(s string) *string { return &s }

func linkedSite() *store.Site {
	return &store.Site{
		ID:                 "site-1",
		URL:                "https://acme-plumbing.example/",
		GoogleConnectionID: strPtr("conn-1"),
		GA4PropertyID:      strPtr("123456"),
		GSCSiteURL:         strPtr("sc-domain:acme-plumbing.example"),
	}
}

func TestWindow(t *testing.T) {
	start, end := Window(time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC))
	if start != "2026-02-01" || end != "2026-02-28" {
		t.Errorf("Window = %s..%s, want 2026-02-01..2026-02-28", start, end)
	}
}

func TestFetchSnapshot(t *testing.T) {
	api := &googleAPI{t: t}
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	src := &Source{
		Clients:   staticServices{svcs: newTestServices(t, api)},
		PageSpeed: fakePageSpeed{res: &PageSpeedResult{LCP: metrics.Float(2100), CLS: metrics.Float(0.05)}},
		Now:       func() time.Time { return now },
	}

	snap, err := src.FetchSnapshot(context.Background(), linkedSite())
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}

	if snap.SiteID != "site-1" || !snap.SnapshotDate.Equal(now) {
		t.Errorf("identity = %s @ %v", snap.SiteID, snap.SnapshotDate)
	}
	// 600 of 1000 sessions are mobile; bounce (0.5*600+0.2*300+0.3*100)/1000.
	if snap.Sessions != 1000 || snap.MobilePct != 60 || snap.BounceRate != 39 {
		t.Errorf("ga4 = sessions %d, mobile %v, bounce %v", snap.Sessions, snap.MobilePct, snap.BounceRate)
	}
	if snap.Clicks != 120 || snap.Impressions != 4000 || snap.CTR != 3 || snap.AvgPosition != 8.46 {
		t.Errorf("gsc = %d/%d/%v/%v", snap.Clicks, snap.Impressions, snap.CTR, snap.AvgPosition)
	}
	if len(snap.TopQueries) != 2 || snap.TopQueries[0].Query != "plumber near me" || snap.TopQueries[0].CTR != 4.44 {
		t.Errorf("top queries = %+v", snap.TopQueries)
	}
	if snap.LCP == nil || *snap.LCP != 2100 || snap.FID != nil {
		t.Errorf("perf = lcp %v fid %v", snap.LCP, snap.FID)
	}
	if snap.IndexedPages != nil {
		t.Error("indexed pages are not fetched")
	}

	if len(api.gotDates) != 2 || api.gotDates[0] != "2026-02-01" || api.gotDates[1] != "2026-02-28" {
		t.Errorf("ga4 date range = %v", api.gotDates)
	}
	if len(api.gotRowLims) != 1 || api.gotRowLims[0] != DefaultTopQueries {
		t.Errorf("top query row limit = %v", api.gotRowLims)
	}
}

func TestFetchSnapshot_AnyFailureFails(t *testing.T) {
	tests := []struct {
		name string
		api  *googleAPI
		ps   fakePageSpeed
	}{
		{"search console down", &googleAPI{gscFail: true}, fakePageSpeed{res: &PageSpeedResult{}}},
		{"pagespeed down", &googleAPI{}, fakePageSpeed{err: &UpstreamError{Source: "pagespeed", Err: errors.New("boom")}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.api.t = t
			src := &Source{
				Clients:   staticServices{svcs: newTestServices(t, tc.api)},
				PageSpeed: tc.ps,
				Now:       time.Now,
			}
			snap, err := src.FetchSnapshot(context.Background(), linkedSite())
			if err == nil || snap != nil {
				t.Fatalf("FetchSnapshot = %v, %v; want error", snap, err)
			}
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Errorf("err = %v, want UpstreamError in chain", err)
			}
		})
	}
}

func TestFetchSnapshot_IncompleteSetup(t *testing.T) {
	src := NewSource(staticServices{}, fakePageSpeed{})
	site := linkedSite()
	site.GA4PropertyID = nil
	if _, err := src.FetchSnapshot(context.Background(), site); err == nil {
		t.Error("incomplete setup should fail")
	}
}

type memTokens struct {
	conn    *store.GoogleConnection
	updates []string
}

func (m *memTokens) GetGoogleConnection(ctx context.Context, id string) (*store.GoogleConnection, error) {
	return m.conn, nil
}

func (m *memTokens) UpdateGoogleTokens(ctx context.Context, id, accessToken string, expiresAt *time.Time) error {
	m.updates = append(m.updates, accessToken)
	return nil
}

type seqSource struct {
	toks []string
	i    int
}

func (s *seqSource) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.toks[s.i], Expiry: time.Now().Add(time.Hour)}
	if s.i < len(s.toks)-1 {
		s.i++
	}
	return tok, nil
}

func TestPersistingSource(t *testing.T) {
	tokens := &memTokens{}
	src := &persistingSource{
		ctx:    context.Background(),
		id:     "conn-1",
		base:   &seqSource{toks: []string{"old", "new", "new"}},
		tokens: tokens,
		last:   "old",
	}
	for i := 0; i < 3; i++ {
		if _, err := src.Token(); err != nil {
			t.Fatalf("Token: %v", err)
		}
	}
	if len(tokens.updates) != 1 || tokens.updates[0] != "new" {
		t.Errorf("persisted tokens = %v, want [new]", tokens.updates)
	}
}

func TestHTTPClient_MissingConnection(t *testing.T) {
	c := NewConnectionClients("id", "secret", "http://localhost/callback", &memTokens{})
	if _, err := c.HTTPClient(context.Background(), "nope"); err == nil {
		t.Error("missing connection should fail")
	}
}

func TestAuthCodeURL(t *testing.T) {
	c := NewConnectionClients("client-123", "secret", "http://localhost/callback", &memTokens{})
	u := c.AuthCodeURL("state-xyz")
	for _, want := range []string{"client_id=client-123", "state=state-xyz", "access_type=offline", "prompt=consent"} {
		if !strings.Contains(u, want) {
			t.Errorf("AuthCodeURL %q missing %q", u, want)
		}
	}
}
