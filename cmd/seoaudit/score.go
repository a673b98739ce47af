package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seoauditor/seoauditor/internal/archive"
	"github.com/seoauditor/seoauditor/internal/siteaudit"
	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/metrics"
	"github.com/seoauditor/seoauditor/pkg/surface"
)

func newScoreCmd() *cobra.Command {
	var (
		metricsPath string
		siteID      string
		snapshotID  string
		outputFmt   string
		top         int
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a metrics snapshot",
		Long: `Runs the metric rules, category scores and recommendations over a snapshot,
read either from a JSON file (--metrics) or from the archive (--site and --snapshot).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), scoreOpts{
				metricsPath: metricsPath,
				siteID:      siteID,
				snapshotID:  snapshotID,
				outputFmt:   outputFmt,
				top:         top,
			})
		},
	}

	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Path to a snapshot JSON file")
	cmd.Flags().StringVar(&siteID, "site", "", "Site ID of an archived snapshot")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Archived snapshot ID")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().IntVar(&top, "top", siteaudit.MaxRecommendations, "Number of recommendations to show (-1 for all)")
	cmd.MarkFlagsMutuallyExclusive("metrics", "site")
	cmd.MarkFlagsRequiredTogether("site", "snapshot")

	return cmd
}

type scoreOpts struct {
	metricsPath string
	siteID      string
	snapshotID  string
	outputFmt   string
	top         int
}

func runScore(ctx context.Context, opts scoreOpts) error {
	var (
		snap *metrics.Snapshot
		err  error
	)
	switch {
	case opts.metricsPath != "":
		snap, err = readSnapshot(opts.metricsPath)
	case opts.siteID != "":
		snap, err = loadArchivedSnapshot(ctx, opts.siteID, opts.snapshotID)
	default:
		return fmt.Errorf("either --metrics or --site/--snapshot is required")
	}
	if err != nil {
		return err
	}

	issues := audit.EvaluateRules(snap)
	recs := audit.TopN(audit.GenerateRecommendations(issues), opts.top)
	target := firstNonEmpty(snap.SiteID, opts.metricsPath)

	rep := surface.FromScores(target, audit.ComputeScores(issues), issues, recs)
	return surface.ForOutput(opts.outputFmt).RenderReport(os.Stdout, rep)
}

func readSnapshot(path string) (*metrics.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return &snap, nil
}

func loadArchivedSnapshot(ctx context.Context, siteID, snapshotID string) (*metrics.Snapshot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	arch, err := archive.New(ctx, archive.Config{
		Backend:   cfg.Storage.Backend,
		Path:      cfg.Storage.Path,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return archive.LoadSnapshot(ctx, arch, siteID, snapshotID)
}
