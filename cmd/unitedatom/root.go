package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	ualog "github.com/nao1215/unitedatom/internal/log"
)

// NewRootCmd creates the root command for unitedatom.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unitedatom",
		Short: "Orientation-resolved protein adsorption energies on nanoparticles",
		Long: `unitedatom scans a coarse-grained protein over every orientation relative
to a nanoparticle surface and integrates the residue-surface potentials into
a free-energy map of adsorption strength.

Results are written as .uam grids, one per protein, nanoparticle and omega
rotation. Finished grids are never recomputed, so an interrupted run can be
restarted with the same configuration.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewSummarizeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a boolean flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the stderr logger. Repeated warnings are capped so
// per-residue and per-sample messages cannot flood the terminal.
func setupLogger(verbose, jsonOutput bool) *slog.Logger {
	if jsonOutput {
		return ualog.NewJSONLogger(os.Stderr, verbose)
	}
	return ualog.NewLogger(os.Stderr, verbose)
}
