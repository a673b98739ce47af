// Package main provides the seoaudit CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seoauditor/seoauditor/pkg/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "seoaudit",
		Short: "SEO health audits for small business websites",
		Long: `seoaudit runs instant audits of live pages, scores metrics snapshots,
and compares snapshots for period-over-period regressions.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newAuditCmd(),
		newScoreCmd(),
		newRegressCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the nearest .seoauditor/config.yaml, then the environment.
func loadConfig() (*config.Config, error) {
	path := ""
	if wd, err := os.Getwd(); err == nil {
		path = config.FindConfigFile(wd)
	}
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("config from environment: %w", err)
	}
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
