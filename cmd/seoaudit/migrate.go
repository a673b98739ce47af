package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seoauditor/seoauditor/internal/platform"
	"github.com/seoauditor/seoauditor/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var (
		databaseURL string
		down        int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), databaseURL, down)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default: config or DATABASE_URL)")
	cmd.Flags().IntVar(&down, "down", 0, "Roll back this many migrations instead of migrating up")

	return cmd
}

func runMigrate(ctx context.Context, databaseURL string, down int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := store.Open(ctx, firstNonEmpty(databaseURL, cfg.Database.URL))
	if err != nil {
		return err
	}
	defer db.Close()

	if down > 0 {
		if err := platform.Rollback(db, down); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "rolled back %d migration(s)\n", down)
		return nil
	}

	version, err := platform.AutoMigrate(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "schema at version %d\n", version)
	return nil
}
