package audit_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
)

func str(s string) *string { return &s }

// cleanPage returns metadata that triggers no on-page rule.
func cleanPage() *htmlmeta.Metadata {
	title := "Best Plumber in Springfield - Acme Plumbing"
	desc := strings.Repeat("d", 120)
	return &htmlmeta.Metadata{
		Title:                 &title,
		TitleLength:           len(title),
		MetaDescription:       &desc,
		MetaDescriptionLength: len(desc),
		H1Count:               1,
		FirstH1:               str("Acme Plumbing"),
		ImgCount:              2,
		HasViewport:           true,
		HasCanonical:          true,
		HasStructuredData:     true,
		IsHTTPS:               true,
	}
}

func TestEvaluateOnPageRules_Clean(t *testing.T) {
	if issues := audit.EvaluateOnPageRules(cleanPage()); len(issues) != 0 {
		t.Errorf("clean page produced issues: %v", ruleIDs(issues))
	}
}

func TestEvaluateOnPageRules_FourCritical(t *testing.T) {
	meta := cleanPage()
	meta.Title, meta.TitleLength = nil, 0
	meta.MetaDescription, meta.MetaDescriptionLength = nil, 0
	meta.H1Count, meta.FirstH1 = 0, nil
	meta.IsHTTPS = false

	issues := audit.EvaluateOnPageRules(meta)
	want := []string{audit.RuleMissingTitle, audit.RuleMissingMetaDescription, audit.RuleMissingH1, audit.RuleNotHTTPS}
	if got := ruleIDs(issues); !reflect.DeepEqual(got, want) {
		t.Fatalf("issues = %v, want %v", got, want)
	}
	for _, is := range issues {
		if is.Severity != audit.SeverityCritical {
			t.Errorf("%s severity = %s, want critical", is.RuleID, is.Severity)
		}
	}

	if got := audit.PenaltyScore(issues, audit.OnPagePenalties); got != 40 {
		t.Errorf("on-page score = %d, want 40", got)
	}
}

func TestEvaluateOnPageRules_Lengths(t *testing.T) {
	tests := []struct {
		name     string
		titleLen int
		descLen  int
		want     []string
	}{
		{"title 19", 19, 100, []string{audit.RuleTitleTooShort}},
		{"title 20", 20, 100, nil},
		{"title 60", 60, 100, nil},
		{"title 61", 61, 100, []string{audit.RuleTitleTooLong}},
		{"desc 69", 40, 69, []string{audit.RuleMetaDescriptionShort}},
		{"desc 70", 40, 70, nil},
		{"desc 160", 40, 160, nil},
		{"desc 161", 40, 161, []string{audit.RuleMetaDescriptionLong}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := cleanPage()
			meta.Title = str(strings.Repeat("t", tc.titleLen))
			meta.TitleLength = tc.titleLen
			meta.MetaDescription = str(strings.Repeat("d", tc.descLen))
			meta.MetaDescriptionLength = tc.descLen

			got := ruleIDs(audit.EvaluateOnPageRules(meta))
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("issues = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateOnPageRules_Images(t *testing.T) {
	meta := cleanPage()
	meta.ImgCount = 5
	meta.ImgsMissingAlt = 2

	issues := audit.EvaluateOnPageRules(meta)
	if len(issues) != 1 || issues[0].RuleID != audit.RuleImagesWithoutAlt {
		t.Fatalf("issues = %v, want images-without-alt", ruleIDs(issues))
	}
	if !strings.HasPrefix(issues[0].Description, "2 of 5 images") {
		t.Errorf("description = %q", issues[0].Description)
	}
	if issues[0].Threshold != 0 {
		t.Errorf("threshold = %v, want 0", issues[0].Threshold)
	}
}

func TestEvaluateOnPageRules_MissingSignals(t *testing.T) {
	meta := cleanPage()
	meta.H1Count = 3
	meta.HasViewport = false
	meta.HasCanonical = false
	meta.HasStructuredData = false

	got := map[string]audit.Severity{}
	for _, is := range audit.EvaluateOnPageRules(meta) {
		got[is.RuleID] = is.Severity
	}
	want := map[string]audit.Severity{
		audit.RuleMultipleH1:       audit.SeverityWarning,
		audit.RuleNoViewportMeta:   audit.SeverityCritical,
		audit.RuleNoCanonical:      audit.SeverityWarning,
		audit.RuleNoStructuredData: audit.SeverityInfo,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("issues = %v, want %v", got, want)
	}
}

func TestEvaluateOnPageRules_EmptyMetadata(t *testing.T) {
	// A page with nothing extractable still evaluates without panicking.
	issues := audit.EvaluateOnPageRules(&htmlmeta.Metadata{})
	if len(issues) != 7 {
		t.Errorf("got %d issues %v, want 7", len(issues), ruleIDs(issues))
	}
}
