package audit

import (
	"fmt"

	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
)

// OnPageRule is a rule evaluated against extracted HTML metadata.
type OnPageRule interface {
	ID() string
	Severity() Severity
	Evaluate(meta *htmlmeta.Metadata) *Issue
}

type pageRule struct {
	id       string
	severity Severity
	eval     func(meta *htmlmeta.Metadata) *Issue
}

func (r *pageRule) ID() string         { return r.id }
func (r *pageRule) Severity() Severity { return r.severity }

func (r *pageRule) Evaluate(meta *htmlmeta.Metadata) *Issue {
	if meta == nil {
		return nil
	}
	return r.eval(meta)
}

// Rule identifiers of the on-page catalog.
const (
	RuleMissingTitle           = "missing-title"
	RuleTitleTooLong           = "title-too-long"
	RuleTitleTooShort          = "title-too-short"
	RuleMissingMetaDescription = "missing-meta-description"
	RuleMetaDescriptionLong    = "meta-description-too-long"
	RuleMetaDescriptionShort   = "meta-description-too-short"
	RuleMissingH1              = "missing-h1"
	RuleMultipleH1             = "multiple-h1"
	RuleImagesWithoutAlt       = "images-without-alt"
	RuleNoViewportMeta         = "no-viewport-meta"
	RuleNoCanonical            = "no-canonical"
	RuleNoStructuredData       = "no-structured-data"
	RuleNotHTTPS               = "not-https"
)

// absent builds the issue for a signal that should be present but is not.
func absent(id string, sev Severity, title, desc, metric string) *Issue {
	return &Issue{
		RuleID:       id,
		Severity:     sev,
		Title:        title,
		Description:  desc,
		Metric:       metric,
		CurrentValue: 0,
		Threshold:    1,
	}
}

// DefaultOnPageRules returns the on-page rule catalog in evaluation order.
func DefaultOnPageRules() []OnPageRule {
	return []OnPageRule{
		&pageRule{id: RuleMissingTitle, severity: SeverityCritical, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.Title != nil {
				return nil
			}
			return absent(RuleMissingTitle, SeverityCritical, "Missing Page Title",
				"Your page has no <title> tag. This is critical for SEO and user experience.", "titleLength")
		}},
		&pageRule{id: RuleTitleTooLong, severity: SeverityWarning, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.Title == nil || m.TitleLength <= 60 {
				return nil
			}
			return &Issue{
				RuleID:       RuleTitleTooLong,
				Severity:     SeverityWarning,
				Title:        "Title Tag Too Long",
				Description:  fmt.Sprintf("Your title is %d characters. Google typically displays 50-60 characters.", m.TitleLength),
				Metric:       "titleLength",
				CurrentValue: float64(m.TitleLength),
				Threshold:    60,
			}
		}},
		&pageRule{id: RuleTitleTooShort, severity: SeverityWarning, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.Title == nil || m.TitleLength >= 20 {
				return nil
			}
			return &Issue{
				RuleID:       RuleTitleTooShort,
				Severity:     SeverityWarning,
				Title:        "Title Tag Too Short",
				Description:  fmt.Sprintf("Your title is only %d characters. Aim for 20-60 characters for best results.", m.TitleLength),
				Metric:       "titleLength",
				CurrentValue: float64(m.TitleLength),
				Threshold:    20,
			}
		}},
		&pageRule{id: RuleMissingMetaDescription, severity: SeverityCritical, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.MetaDescription != nil {
				return nil
			}
			return absent(RuleMissingMetaDescription, SeverityCritical, "Missing Meta Description",
				"Your page has no meta description. This tag helps Google understand your page and improves CTR.", "metaDescriptionLength")
		}},
		&pageRule{id: RuleMetaDescriptionLong, severity: SeverityWarning, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.MetaDescription == nil || m.MetaDescriptionLength <= 160 {
				return nil
			}
			return &Issue{
				RuleID:       RuleMetaDescriptionLong,
				Severity:     SeverityWarning,
				Title:        "Meta Description Too Long",
				Description:  fmt.Sprintf("Your meta description is %d characters. Google truncates at ~160 characters.", m.MetaDescriptionLength),
				Metric:       "metaDescriptionLength",
				CurrentValue: float64(m.MetaDescriptionLength),
				Threshold:    160,
			}
		}},
		&pageRule{id: RuleMetaDescriptionShort, severity: SeverityWarning, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.MetaDescription == nil || m.MetaDescriptionLength >= 70 {
				return nil
			}
			return &Issue{
				RuleID:       RuleMetaDescriptionShort,
				Severity:     SeverityWarning,
				Title:        "Meta Description Too Short",
				Description:  fmt.Sprintf("Your meta description is only %d characters. Aim for 70-160 characters.", m.MetaDescriptionLength),
				Metric:       "metaDescriptionLength",
				CurrentValue: float64(m.MetaDescriptionLength),
				Threshold:    70,
			}
		}},
		&pageRule{id: RuleMissingH1, severity: SeverityCritical, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.H1Count != 0 {
				return nil
			}
			return absent(RuleMissingH1, SeverityCritical, "Missing H1 Heading",
				"Your page has no H1 heading. Every page should have exactly one H1 for SEO.", "h1Count")
		}},
		&pageRule{id: RuleMultipleH1, severity: SeverityWarning, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.H1Count <= 1 {
				return nil
			}
			return &Issue{
				RuleID:       RuleMultipleH1,
				Severity:     SeverityWarning,
				Title:        "Multiple H1 Headings",
				Description:  fmt.Sprintf("Your page has %d H1 tags. Best practice is to have exactly one H1.", m.H1Count),
				Metric:       "h1Count",
				CurrentValue: float64(m.H1Count),
				Threshold:    1,
			}
		}},
		&pageRule{id: RuleImagesWithoutAlt, severity: SeverityWarning, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.ImgsMissingAlt <= 0 {
				return nil
			}
			return &Issue{
				RuleID:       RuleImagesWithoutAlt,
				Severity:     SeverityWarning,
				Title:        "Images Missing Alt Text",
				Description:  fmt.Sprintf("%d of %d images are missing alt text. Alt text helps SEO and accessibility.", m.ImgsMissingAlt, m.ImgCount),
				Metric:       "imgsMissingAlt",
				CurrentValue: float64(m.ImgsMissingAlt),
				Threshold:    0,
			}
		}},
		&pageRule{id: RuleNoViewportMeta, severity: SeverityCritical, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.HasViewport {
				return nil
			}
			return absent(RuleNoViewportMeta, SeverityCritical, "Missing Viewport Meta Tag",
				"Your page has no viewport meta tag. This is essential for mobile-friendly design.", "hasViewport")
		}},
		&pageRule{id: RuleNoCanonical, severity: SeverityWarning, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.HasCanonical {
				return nil
			}
			return absent(RuleNoCanonical, SeverityWarning, "Missing Canonical Link",
				"Your page has no canonical tag. This can lead to duplicate content issues.", "hasCanonical")
		}},
		&pageRule{id: RuleNoStructuredData, severity: SeverityInfo, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.HasStructuredData {
				return nil
			}
			return absent(RuleNoStructuredData, SeverityInfo, "No Structured Data Found",
				"No JSON-LD structured data detected. Adding schema markup can improve rich snippets.", "hasStructuredData")
		}},
		&pageRule{id: RuleNotHTTPS, severity: SeverityCritical, eval: func(m *htmlmeta.Metadata) *Issue {
			if m.IsHTTPS {
				return nil
			}
			return absent(RuleNotHTTPS, SeverityCritical, "Not Using HTTPS",
				"Your site is not using HTTPS. This is a Google ranking signal and essential for security.", "isHttps")
		}},
	}
}

// EvaluateOnPageRules runs the default on-page catalog against meta.
func EvaluateOnPageRules(meta *htmlmeta.Metadata) []Issue {
	issues := []Issue{}
	for _, r := range DefaultOnPageRules() {
		if issue := r.Evaluate(meta); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}
