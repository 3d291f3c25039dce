package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/unitedatom/internal/config"
	"github.com/nao1215/unitedatom/internal/database"
)

// timeLayout is how ledger timestamps are printed.
const timeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// It reads the scan ledger written by scan.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scans",
		Long: `History lists the scans recorded in the ledger, newest first.

Every scan run has a run id; each completed grid is recorded with its key,
output path, parameter fingerprint and summary statistics. Two runs can be
compared key by key to see how parameter changes moved the binding energies.

Examples:
  # List the most recent scans
  unitedatom history

  # List run ids
  unitedatom history --runs

  # Scans of one protein in one run, as JSON
  unitedatom history --run 3f0c... --molecule 1AKI -j

  # Compare the Boltzmann averages of two runs
  unitedatom history --compare <old-run> --compare <new-run>`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("runs", false, "List run ids")
	cmd.Flags().String("run", "", "Only show scans of this run")
	cmd.Flags().String("molecule", "", "Only show scans of this molecule")
	cmd.Flags().String("np", "", "Only show scans against this nanoparticle")
	cmd.Flags().IntP("limit", "n", 50, "Maximum number of scans to show (0 for all)")
	cmd.Flags().StringArray("compare", nil, "Compare two runs (give the flag twice: old, then new)")
	cmd.Flags().String("db-dir", "", "Ledger directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	listRuns bool
	filter   database.Filter
	compare  []string
	dbDir    string
	json     bool
}

func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var opts historyOptions
	var err error
	flags := cmd.Flags()

	if opts.listRuns, err = flags.GetBool("runs"); err != nil {
		return opts, err
	}
	if opts.filter.RunID, err = flags.GetString("run"); err != nil {
		return opts, err
	}
	if opts.filter.Molecule, err = flags.GetString("molecule"); err != nil {
		return opts, err
	}
	if opts.filter.Nanoparticle, err = flags.GetString("np"); err != nil {
		return opts, err
	}
	if opts.filter.Limit, err = flags.GetInt("limit"); err != nil {
		return opts, err
	}
	if opts.compare, err = flags.GetStringArray("compare"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return opts, err
	}

	if len(opts.compare) != 0 && len(opts.compare) != 2 {
		return opts, errors.New("--compare takes exactly two run ids")
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	// Validate flags before opening the database
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	dbOpts := database.DefaultOptions()
	dbOpts.CreateIfNotExists = false
	ledger, err := database.Open(opts.dbDir, dbOpts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer ledger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.listRuns:
		return listRuns(ctx, out, ledger)
	case len(opts.compare) == 2:
		return compareRuns(ctx, out, ledger, opts.compare[0], opts.compare[1], opts.json)
	default:
		return listScans(ctx, out, ledger, opts.filter, opts.json)
	}
}

// listRuns lists every run id, newest first.
func listRuns(ctx context.Context, out io.Writer, ledger *database.Ledger) error {
	runs, err := ledger.Runs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded in the ledger.")
		fmt.Fprintln(out, "\nUse 'unitedatom scan' to compute maps.")
		return nil
	}

	fmt.Fprintf(out, "Recorded runs (%d):\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(out, "  • %s\n", run)
	}
	fmt.Fprintln(out, "\nUse 'unitedatom history --run <id>' to see the scans of a run.")
	return nil
}

// listScans lists the scans matching f.
func listScans(ctx context.Context, out io.Writer, ledger *database.Ledger, f database.Filter, jsonOutput bool) error {
	records, err := ledger.List(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No scans found.")
		return nil
	}

	fmt.Fprintf(out, "Scans (%d):\n\n", len(records))
	fmt.Fprintf(out, "  %-6s  %-19s  %-16s  %-16s  %-6s  %-12s  %s\n",
		"ID", "Date", "Molecule", "NP", "Omega", "Boltzmann", "Elapsed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 96))
	for _, r := range records {
		fmt.Fprintf(out, "  %-6d  %-19s  %-16s  %-16s  %-6.1f  %-12.5f  %s\n",
			r.ID,
			r.Timestamp.Local().Format(timeLayout),
			truncate(r.Molecule, 16),
			truncate(r.Nanoparticle, 16),
			r.Omega,
			r.BoltzmannAverage,
			r.Elapsed.Round(time.Millisecond),
		)
	}
	return nil
}

// RunComparison is the key-by-key difference between two runs.
type RunComparison struct {
	OldRun  string       `json:"old_run"`
	NewRun  string       `json:"new_run"`
	Changes []EnergyDiff `json:"changes"`

	// OnlyOld and OnlyNew list keys scanned in just one of the runs.
	OnlyOld []string `json:"only_old,omitempty"`
	OnlyNew []string `json:"only_new,omitempty"`
}

// EnergyDiff compares the Boltzmann averages of one key in both runs.
type EnergyDiff struct {
	Key   string  `json:"key"`
	Old   float64 `json:"old"`
	New   float64 `json:"new"`
	Delta float64 `json:"delta"`
}

// recordKey identifies a scan across runs.
func recordKey(r database.ScanRecord) string {
	key := fmt.Sprintf("%s/%s@%g", r.Nanoparticle, r.Molecule, r.Omega)
	if r.MFPT {
		key += "+mfpt"
	}
	return key
}

func compareRecords(oldRun, newRun string, oldRecs, newRecs []database.ScanRecord) *RunComparison {
	result := &RunComparison{OldRun: oldRun, NewRun: newRun}

	// Records are newest first; the first record of a key wins.
	index := func(recs []database.ScanRecord) map[string]database.ScanRecord {
		m := make(map[string]database.ScanRecord, len(recs))
		for _, r := range recs {
			if _, ok := m[recordKey(r)]; !ok {
				m[recordKey(r)] = r
			}
		}
		return m
	}
	oldByKey := index(oldRecs)
	newByKey := index(newRecs)

	for k, o := range oldByKey {
		n, ok := newByKey[k]
		if !ok {
			result.OnlyOld = append(result.OnlyOld, k)
			continue
		}
		result.Changes = append(result.Changes, EnergyDiff{
			Key:   k,
			Old:   o.BoltzmannAverage,
			New:   n.BoltzmannAverage,
			Delta: n.BoltzmannAverage - o.BoltzmannAverage,
		})
	}
	for k := range newByKey {
		if _, ok := oldByKey[k]; !ok {
			result.OnlyNew = append(result.OnlyNew, k)
		}
	}

	sort.Slice(result.Changes, func(i, j int) bool { return result.Changes[i].Key < result.Changes[j].Key })
	sort.Strings(result.OnlyOld)
	sort.Strings(result.OnlyNew)
	return result
}

// compareRuns prints the differences between two runs.
func compareRuns(ctx context.Context, out io.Writer, ledger *database.Ledger, oldRun, newRun string, jsonOutput bool) error {
	oldRecs, err := ledger.List(ctx, database.Filter{RunID: oldRun})
	if err != nil {
		return fmt.Errorf("failed to read run %s: %w", oldRun, err)
	}
	newRecs, err := ledger.List(ctx, database.Filter{RunID: newRun})
	if err != nil {
		return fmt.Errorf("failed to read run %s: %w", newRun, err)
	}
	if len(oldRecs) == 0 || len(newRecs) == 0 {
		return fmt.Errorf("both runs must have recorded scans (found %d and %d)", len(oldRecs), len(newRecs))
	}

	result := compareRecords(oldRun, newRun, oldRecs, newRecs)

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(out, "Run Comparison: %s -> %s\n\n", oldRun, newRun)
	fmt.Fprintf(out, "  %-40s  %-12s  %-12s  %s\n", "Key", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))
	for _, c := range result.Changes {
		fmt.Fprintf(out, "  %-40s  %-12.5f  %-12.5f  %s\n", truncate(c.Key, 40), c.Old, c.New, formatDelta(c.Delta))
	}
	if len(result.OnlyOld) > 0 {
		fmt.Fprintf(out, "\nOnly in %s (%d):\n", oldRun, len(result.OnlyOld))
		for _, k := range result.OnlyOld {
			fmt.Fprintf(out, "  [-] %s\n", k)
		}
	}
	if len(result.OnlyNew) > 0 {
		fmt.Fprintf(out, "\nOnly in %s (%d):\n", newRun, len(result.OnlyNew))
		for _, k := range result.OnlyNew {
			fmt.Fprintf(out, "  [+] %s\n", k)
		}
	}
	return nil
}

// formatDelta formats an energy change with a sign. Negative changes mean
// stronger adsorption.
func formatDelta(delta float64) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%.5f", delta)
	case delta < 0:
		return fmt.Sprintf("%.5f", delta)
	default:
		return "0"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
