package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/unitedatom/internal/config"
	"github.com/nao1215/unitedatom/internal/input"
	"github.com/nao1215/unitedatom/internal/output"
	"github.com/nao1215/unitedatom/internal/report"
	"github.com/nao1215/unitedatom/internal/summary"
)

// NewSummarizeCmd creates the summarize command.
func NewSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <grid-target>...",
		Short: "Summarise finished orientation grids",
		Long: `Summarize reads .uam grid files, or directories searched recursively for
them, and prints the solid-angle weighted simple and Boltzmann averages and
the mean error of each map.

The shape is not stored in grid files, so summaries read back from disk
report an unknown shape.

Examples:
  # Summarise every map of a run
  unitedatom summarize results/

  # Write a Markdown report of two nanoparticles
  unitedatom summarize -m -o summary.md results/np1R_5_ZP_0 results/np2R_10_ZP_0`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSummarizeCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runSummarizeCmd executes the summarize command.
func runSummarizeCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	logger := setupLogger(getBoolFlag(cmd, "verbose"), getBoolFlag(cmd, "log-json"))

	paths, err := input.CollectTargets(args, output.GridExt, logger)
	if err != nil {
		return err
	}

	rep := report.NewReport("", "", time.Now())
	for _, path := range paths {
		g, err := output.ReadGrid(path)
		if err != nil {
			return err
		}
		rep.Add(report.Entry{Stats: summary.Compute(g), Path: path})
	}

	return outputReport(cfg, rep, cmd.OutOrStdout())
}
