package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seoauditor/seoauditor/pkg/regression"
	"github.com/seoauditor/seoauditor/pkg/surface"
)

func newRegressCmd() *cobra.Command {
	var (
		currentPath  string
		previousPath string
		showAll      bool
		outputFmt    string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "regress",
		Short: "Compare two metrics snapshots",
		Long: `Compares the current snapshot against a previous one. By default only
significant regressions (critical or warning) are shown; --all shows every
notable change including improvements.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegress(regressOpts{
				currentPath:  currentPath,
				previousPath: previousPath,
				showAll:      showAll,
				outputFmt:    outputFmt,
				verbose:      verbose,
			})
		},
	}

	cmd.Flags().StringVar(&currentPath, "current", "", "Current snapshot JSON (required)")
	cmd.Flags().StringVar(&previousPath, "previous", "", "Previous snapshot JSON (required)")
	cmd.Flags().BoolVar(&showAll, "all", false, "Show all notable changes, not only significant regressions")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Report metrics that were skipped")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("previous")

	return cmd
}

type regressOpts struct {
	currentPath  string
	previousPath string
	showAll      bool
	outputFmt    string
	verbose      bool
}

func runRegress(opts regressOpts) error {
	current, err := readSnapshot(opts.currentPath)
	if err != nil {
		return err
	}
	previous, err := readSnapshot(opts.previousPath)
	if err != nil {
		return err
	}

	det := regression.NewDetector()
	if opts.verbose {
		det.OnSkip = func(metric string, reason regression.SkipReason) {
			fmt.Fprintf(os.Stderr, "  skipped %s: %s\n", metric, reason)
		}
	}

	regs := det.Detect(current, previous)
	if !opts.showAll {
		regs = regression.Significant(regs)
	}
	return surface.ForOutput(opts.outputFmt).RenderRegressions(os.Stdout, regs)
}
