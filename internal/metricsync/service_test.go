package metricsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seoauditor/seoauditor/internal/notify"
	"github.com/seoauditor/seoauditor/internal/store"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

type fakeStore struct {
	sites     []store.Site
	listErr   error
	baseline  *metrics.Snapshot
	saved     []*metrics.Snapshot
	touched   []string
	alerts    []store.Alert
	gotOffset int
}

func (f *fakeStore) ListSites(ctx context.Context) ([]store.Site, error) {
	return f.sites, f.listErr
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, m *metrics.Snapshot) (string, error) {
	f.saved = append(f.saved, m)
	return "snap-" + m.SiteID, nil
}

func (f *fakeStore) TouchSiteSync(ctx context.Context, siteID string, at time.Time) error {
	f.touched = append(f.touched, siteID)
	return nil
}

func (f *fakeStore) GetSnapshotOffset(ctx context.Context, siteID string, offset int) (*metrics.Snapshot, error) {
	f.gotOffset = offset
	return f.baseline, nil
}

func (f *fakeStore) SaveAlerts(ctx context.Context, alerts []store.Alert) error {
	f.alerts = append(f.alerts, alerts...)
	return nil
}

type fakeSource struct {
	snap *metrics.Snapshot
	fail map[string]error
}

func (f *fakeSource) FetchSnapshot(ctx context.Context, site *store.Site) (*metrics.Snapshot, error) {
	if err := f.fail[site.ID]; err != nil {
		return nil, err
	}
	return f.snap.Clone(), nil
}

type fakeNotifier struct {
	sent []notify.Alert
}

func (f *fakeNotifier) SendRegressionAlert(ctx context.Context, a notify.Alert) error {
	f.sent = append(f.sent, a)
	return nil
}

type fakeArchive struct {
	snapshots map[string]bool
}

func (f *fakeArchive) PutAudit(ctx context.Context, siteID, auditID string, data []byte) error {
	return nil
}

func (f *fakeArchive) GetAudit(ctx context.Context, siteID, auditID string) ([]byte, error) {
	return nil, nil
}

func (f *fakeArchive) PutSnapshot(ctx context.Context, siteID, snapshotID string, data []byte) error {
	f.snapshots[siteID+"/"+snapshotID] = true
	return nil
}

func (f *fakeArchive) GetSnapshot(ctx context.Context, siteID, snapshotID string) ([]byte, error) {
	return nil, nil
}

func s(v string) *string { return &v }

func linked(id string) store.Site {
	return store.Site{
		ID:                 id,
		Name:               "Site " + id,
		URL:                "https://" + id + ".example",
		GoogleConnectionID: s("conn"),
		GA4PropertyID:      s("123"),
		GSCSiteURL:         s("sc-domain:" + id + ".example"),
		OwnerEmail:         "owner@" + id + ".example",
		AlertsEnabled:      true,
	}
}

func current() *metrics.Snapshot {
	return &metrics.Snapshot{Sessions: 500, Clicks: 100, Impressions: 4000, CTR: 2.5, AvgPosition: 9, MobilePct: 60, BounceRate: 40}
}

func at(day int) func() time.Time {
	return func() time.Time { return time.Date(2026, 3, day, 6, 0, 0, 0, time.UTC) }
}

func TestSyncAll(t *testing.T) {
	incomplete := linked("c")
	incomplete.GSCSiteURL = nil

	fs := &fakeStore{sites: []store.Site{linked("a"), linked("b"), incomplete}}
	src := &fakeSource{snap: current(), fail: map[string]error{"b": errors.New("ga4 quota exhausted")}}
	arch := &fakeArchive{snapshots: map[string]bool{}}
	svc := NewService(fs, src, &fakeNotifier{}, arch)
	svc.Now = at(14)

	results, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}

	want := []SyncResult{
		{SiteID: "a", Status: StatusSynced},
		{SiteID: "b", Status: StatusError, Error: "ga4 quota exhausted"},
		{SiteID: "c", Status: StatusSkipped, Error: "incomplete setup"},
	}
	if len(results) != len(want) {
		t.Fatalf("results = %+v", results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, results[i], want[i])
		}
	}

	if len(fs.saved) != 1 || fs.saved[0].SiteID != "a" {
		t.Errorf("saved snapshots = %+v", fs.saved)
	}
	if len(fs.touched) != 1 || fs.touched[0] != "a" {
		t.Errorf("touched = %v", fs.touched)
	}
	if !arch.snapshots["a/snap-a"] {
		t.Errorf("snapshot not archived: %v", arch.snapshots)
	}
	if fs.gotOffset != 0 {
		t.Error("monthly alert should only run on the first of the month")
	}
}

func TestSyncAll_ListError(t *testing.T) {
	svc := NewService(&fakeStore{listErr: errors.New("db down")}, &fakeSource{}, nil, nil)
	if _, err := svc.SyncAll(context.Background()); err == nil {
		t.Error("list failure should be returned")
	}
}

func TestSyncAll_MonthlyAlertOnFirst(t *testing.T) {
	baseline := current()
	baseline.Sessions = 1000 // -50%: critical

	fs := &fakeStore{sites: []store.Site{linked("a")}, baseline: baseline}
	n := &fakeNotifier{}
	svc := NewService(fs, &fakeSource{snap: current()}, n, nil)
	svc.Now = at(1)

	if _, err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if fs.gotOffset != DefaultOffset {
		t.Errorf("baseline offset = %d, want %d", fs.gotOffset, DefaultOffset)
	}
	if len(fs.alerts) != 1 || fs.alerts[0].Metric != "sessions" || !fs.alerts[0].EmailSent || fs.alerts[0].AlertType != "regression" {
		t.Errorf("alerts = %+v", fs.alerts)
	}
	if len(n.sent) != 1 || n.sent[0].Recipient != "owner@a.example" || n.sent[0].SiteName != "Site a" {
		t.Errorf("sent = %+v", n.sent)
	}
}

func TestRunMonthlyAlert(t *testing.T) {
	improved := current()
	improved.Sessions = 250 // current is +100%: improvement only

	regressed := current()
	regressed.CTR = 3.2 // 2.5 vs 3.2 is -21.9%: warning

	tests := []struct {
		name     string
		site     func() store.Site
		baseline *metrics.Snapshot
		wantRegs int
		wantSent int
	}{
		{"alerts disabled", func() store.Site { st := linked("a"); st.AlertsEnabled = false; return st }, regressed, 0, 0},
		{"no baseline", func() store.Site { return linked("a") }, nil, 0, 0},
		{"improvement only", func() store.Site { return linked("a") }, improved, 0, 0},
		{"warning", func() store.Site { return linked("a") }, regressed, 1, 1},
		{"no owner email", func() store.Site { st := linked("a"); st.OwnerEmail = ""; return st }, regressed, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &fakeStore{baseline: tc.baseline}
			n := &fakeNotifier{}
			svc := NewService(fs, nil, n, nil)
			svc.Now = at(1)
			site := tc.site()

			regs, err := svc.RunMonthlyAlert(context.Background(), &site, current())
			if err != nil {
				t.Fatalf("RunMonthlyAlert: %v", err)
			}
			if len(regs) != tc.wantRegs || len(fs.alerts) != tc.wantRegs {
				t.Errorf("regressions = %d, stored alerts = %d, want %d", len(regs), len(fs.alerts), tc.wantRegs)
			}
			if len(n.sent) != tc.wantSent {
				t.Errorf("sent = %d, want %d", len(n.sent), tc.wantSent)
			}
		})
	}
}
