// Package notify delivers monthly regression alerts to site owners.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"text/template"

	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/regression"
)

// Alert is one notification about a site's regressions.
type Alert struct {
	Recipient   string
	SiteName    string
	SiteURL     string
	SiteID      string
	Regressions []regression.Regression
}

// Notifier sends regression alerts.
type Notifier interface {
	SendRegressionAlert(ctx context.Context, a Alert) error
}

// Message is a rendered alert.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Preview string `json:"preview"`
	Body    string `json:"body"`
}

var bodyTmpl = template.Must(template.New("alert").Funcs(template.FuncMap{
	"arrow": func(t regression.Type) string {
		if t == regression.TypeRegression {
			return "v"
		}
		return "^"
	},
}).Parse(`Monthly SEO Alert

We detected changes in your SEO metrics for {{.SiteName}} ({{.SiteURL}}):
{{range .Regressions}}
[{{.Severity}}] {{arrow .Type}} {{.MetricLabel}}
    {{.Message}}
{{end}}
View Full Report: {{.ReportURL}}

You received this because you have email alerts enabled.
`))

// Render builds the message for a. appURL is the dashboard base URL used
// for the report link.
func Render(a Alert, appURL string) (*Message, error) {
	var buf bytes.Buffer
	err := bodyTmpl.Execute(&buf, struct {
		Alert
		ReportURL string
	}{a, strings.TrimRight(appURL, "/") + "/sites/" + a.SiteID})
	if err != nil {
		return nil, fmt.Errorf("render alert for site %s: %w", a.SiteID, err)
	}
	return &Message{
		To:      a.Recipient,
		Subject: fmt.Sprintf("SEO Alert: Changes detected for %s", a.SiteName),
		Preview: preview(a),
		Body:    buf.String(),
	}, nil
}

// preview summarizes the alert: critical count when there are any,
// otherwise the warning count.
func preview(a Alert) string {
	var critical, warning int
	for _, r := range a.Regressions {
		switch r.Severity {
		case audit.SeverityCritical:
			critical++
		case audit.SeverityWarning:
			warning++
		}
	}
	if critical > 0 {
		return fmt.Sprintf("SEO Alert: %d critical issues for %s", critical, a.SiteName)
	}
	return fmt.Sprintf("SEO Alert: %d warnings for %s", warning, a.SiteName)
}

// LogNotifier writes rendered alerts to the standard logger.
type LogNotifier struct {
	AppURL string
}

// SendRegressionAlert implements Notifier.
func (n *LogNotifier) SendRegressionAlert(ctx context.Context, a Alert) error {
	msg, err := Render(a, n.AppURL)
	if err != nil {
		return err
	}
	log.Printf("alert to %s: %s (%s)\n%s", msg.To, msg.Subject, msg.Preview, msg.Body)
	return nil
}
