package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/seoauditor/seoauditor/internal/google"
	"github.com/seoauditor/seoauditor/internal/publicaudit"
	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
	"github.com/seoauditor/seoauditor/pkg/surface"
)

func newAuditCmd() *cobra.Command {
	var (
		outputFmt    string
		pageSpeedKey string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Run an instant audit of a live page",
		Long:  `Fetches the page and its PageSpeed Insights data, then runs the performance and on-page rules.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), auditOpts{
				url:          args[0],
				outputFmt:    outputFmt,
				pageSpeedKey: pageSpeedKey,
				timeout:      timeout,
			})
		},
	}

	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().StringVar(&pageSpeedKey, "pagespeed-key", "", "PageSpeed Insights API key (default: config or PAGESPEED_API_KEY)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Page fetch timeout (default: config, 10s)")

	return cmd
}

type auditOpts struct {
	url          string
	outputFmt    string
	pageSpeedKey string
	timeout      time.Duration
}

func runAudit(ctx context.Context, opts auditOpts) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fetcher := htmlmeta.NewFetcher(&http.Client{})
	fetcher.Timeout = cfg.FetchTimeout()
	if opts.timeout > 0 {
		fetcher.Timeout = opts.timeout
	}
	if cfg.Fetch.MaxBytes > 0 {
		fetcher.MaxBytes = cfg.Fetch.MaxBytes
	}
	fetcher.UserAgent = firstNonEmpty(cfg.Fetch.UserAgent, htmlmeta.DefaultUserAgent)

	pageSpeed, err := google.NewPageSpeedClient(ctx, google.PageSpeedConfig{
		APIKey:   firstNonEmpty(opts.pageSpeedKey, cfg.PageSpeed.APIKey),
		Strategy: cfg.PageSpeed.Strategy,
	})
	if err != nil {
		return fmt.Errorf("pagespeed client: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Auditing %s...\n", opts.url)
	start := time.Now()
	res, err := publicaudit.NewService(fetcher, pageSpeed, nil).Run(ctx, opts.url)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "  done in %s\n\n", time.Since(start).Round(time.Millisecond))

	rep := surface.FromPublicScores(res.URL, res.Scores, res.Issues, res.Recommendations)
	rep.Measurements = measurements(res.PerformanceMetrics)
	return surface.ForOutput(opts.outputFmt).RenderReport(os.Stdout, rep)
}

func measurements(pm publicaudit.PerformanceMetrics) []surface.Measurement {
	show := func(v *float64, format func(float64) string) string {
		if v == nil {
			return "n/a"
		}
		return format(*v)
	}
	return []surface.Measurement{
		{Name: "LCP", Value: show(pm.LCP, func(v float64) string { return fmt.Sprintf("%.1fs", v/1000) })},
		{Name: "CLS", Value: show(pm.CLS, func(v float64) string { return fmt.Sprintf("%.2f", v) })},
		{Name: "FID", Value: show(pm.FID, func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "ms" })},
		{Name: "Lighthouse", Value: show(pm.LighthouseScore, func(v float64) string { return fmt.Sprintf("%.0f", v) })},
	}
}
