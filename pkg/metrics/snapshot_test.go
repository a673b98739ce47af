package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/seoauditor/seoauditor/pkg/metrics"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		snap    *metrics.Snapshot
		wantErr bool
	}{
		{"nil", nil, true},
		{"zero value", &metrics.Snapshot{}, false},
		{"negative sessions", &metrics.Snapshot{Sessions: -1}, true},
		{"negative impressions", &metrics.Snapshot{Impressions: -5}, true},
		{"negative indexed pages", &metrics.Snapshot{IndexedPages: metrics.Int(-1)}, true},
		{"zero indexed pages", &metrics.Snapshot{IndexedPages: metrics.Int(0)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.snap.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestClone(t *testing.T) {
	orig := &metrics.Snapshot{
		Sessions:     10,
		IndexedPages: metrics.Int(4),
		LCP:          metrics.Float(2500),
		TopQueries:   []metrics.TopQuery{{Query: "plumber", Clicks: 3}},
	}
	c := orig.Clone()

	*c.IndexedPages = 99
	*c.LCP = 1
	c.TopQueries[0].Query = "changed"

	if *orig.IndexedPages != 4 || *orig.LCP != 2500 || orig.TopQueries[0].Query != "plumber" {
		t.Errorf("clone aliases the original: %+v", orig)
	}
	if (*metrics.Snapshot)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestSnapshotJSON_NullPerformance(t *testing.T) {
	var s metrics.Snapshot
	if err := json.Unmarshal([]byte(`{"sessions": 5, "lcp": null, "cls": 0.1}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.LCP != nil {
		t.Errorf("LCP = %v, want nil", *s.LCP)
	}
	if s.CLS == nil || *s.CLS != 0.1 {
		t.Errorf("CLS = %v, want 0.1", s.CLS)
	}
}
