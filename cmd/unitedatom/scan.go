package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/unitedatom/internal/config"
	"github.com/nao1215/unitedatom/internal/database"
	"github.com/nao1215/unitedatom/internal/input"
	"github.com/nao1215/unitedatom/internal/metrics"
	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/orient"
	"github.com/nao1215/unitedatom/internal/output"
	"github.com/nao1215/unitedatom/internal/pipeline"
	"github.com/nao1215/unitedatom/internal/profile"
	"github.com/nao1215/unitedatom/internal/report"
	"github.com/nao1215/unitedatom/internal/scan"
	"github.com/nao1215/unitedatom/internal/summary"
)

// boundingOuterOffset is added to a bounding radius override to get the
// outer bound.
const boundingOuterOffset = 0.01

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [pdb-target...]",
		Short: "Compute orientation free-energy maps",
		Long: `Scan computes one orientation grid for every combination of protein,
nanoparticle and omega rotation.

Proteins are read from the CA records of .pdb files. Nanoparticles are read
from .np files, or generated as single beads from the configured radii and
zeta potentials when no NP targets are given. Positional arguments replace
the pdb-targets of the configuration file.

Grids that already exist in the output directory are skipped, so a run can
be resumed after an interruption.

Examples:
  # Scan using .unitedatom in the current or home directory
  unitedatom scan

  # Scan a directory of proteins with an explicit configuration
  unitedatom scan -c lysozyme.yaml structures/

  # Use pre-built nanoparticles and write a Markdown summary
  unitedatom scan --np nps/ -m -o summary.md

  # Reproducible run with 8 workers and Prometheus metrics
  unitedatom scan --seed 42 -w 8 --metrics-file unitedatom.prom`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .unitedatom in current or home directory)")

	// Input flags
	cmd.Flags().StringSlice("np", nil,
		"NP files or directories (replaces np-targets)")

	// Scan behavior flags
	cmd.Flags().StringP("output-dir", "O", "",
		"Directory receiving the grids (replaces output-directory)")
	cmd.Flags().IntP("workers", "w", 0,
		"Number of parallel scan tasks")
	cmd.Flags().Uint64("seed", 0,
		"Master random seed (0 draws a fresh one)")
	cmd.Flags().IntP("samples", "n", 0,
		"Stochastic poses per orientation bin")
	cmd.Flags().Float64("delta", 0,
		"Orientation bin width in degrees")
	cmd.Flags().Bool("mfpt", false,
		"Compute mean first passage times")
	cmd.Flags().Bool("save-potentials", false,
		"Write the raw energy profile of every bin")

	// Bookkeeping flags
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics to this file when the run ends")
	cmd.Flags().Bool("no-db", false,
		"Do not record scans in the ledger")
	cmd.Flags().String("db-dir", "",
		"Ledger directory (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// loadConfig builds the configuration from defaults, the configuration file
// and the environment. Flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	found := config.FindConfigFile(path)
	switch {
	case found != "":
		if err := config.LoadConfigFile(found, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cfg.ConfigFilePath = found
	case path != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = cfg.Verbose || getBoolFlag(cmd, "verbose")
	cfg.LogJSON = cfg.LogJSON || getBoolFlag(cmd, "log-json")
	return cfg, nil
}

// buildScanConfig creates the scan configuration. Flags only override the
// file and environment when they were set explicitly.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	var errs []error
	if flags.Changed("np") {
		cfg.NPTargets, err = flags.GetStringSlice("np")
		errs = append(errs, err)
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, err = flags.GetString("output-dir")
		errs = append(errs, err)
	}
	if flags.Changed("workers") {
		cfg.Workers, err = flags.GetInt("workers")
		errs = append(errs, err)
	}
	if flags.Changed("seed") {
		cfg.Seed, err = flags.GetUint64("seed")
		errs = append(errs, err)
	}
	if flags.Changed("samples") {
		cfg.Samples, err = flags.GetInt("samples")
		errs = append(errs, err)
	}
	if flags.Changed("delta") {
		cfg.AngleDelta, err = flags.GetFloat64("delta")
		errs = append(errs, err)
	}
	if flags.Changed("mfpt") {
		cfg.MFPT, err = flags.GetBool("mfpt")
		errs = append(errs, err)
	}
	if flags.Changed("save-potentials") {
		cfg.SavePotentials, err = flags.GetBool("save-potentials")
		errs = append(errs, err)
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile, err = flags.GetString("metrics-file")
		errs = append(errs, err)
	}
	if flags.Changed("db-dir") {
		cfg.DBDir, err = flags.GetString("db-dir")
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if flags.Changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noDB
	}

	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.PDBTargets = args
	}

	return cfg, nil
}

// applyReportFlags reads --json, --markdown and --output.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	return err
}

// configName names the generated NP directory after the configuration file.
func configName(path string) string {
	if path == "" {
		return config.AppName
	}
	if name := strings.TrimPrefix(input.Stem(path), "."); name != "" {
		return name
	}
	return strings.TrimPrefix(filepath.Base(path), ".")
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	molecules, err := loadMolecules(cfg, logger)
	if err != nil {
		return err
	}

	targets, err := loadTargets(cfg, logger)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		if seed, err = orient.NewSeed(); err != nil {
			return err
		}
	}

	recorder, err := metrics.New()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	bins, err := orient.NewBins(cfg.AngleDelta)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	store := output.NewWriter(cfg.OutputDir, output.WithLogger(logger))
	runID := uuid.NewString()
	pcfg := pipeline.Config{
		Store:      store,
		Dispatcher: scan.NewDispatcher(scan.WithWorkers(cfg.Workers), scan.WithSeed(seed), scan.WithDispatchLogger(logger)),
		ScanOptions: scan.Options{
			Bins:        bins,
			Samples:     cfg.Samples,
			Temperature: cfg.Temperature,
			Profile: profile.Options{
				Steps:          cfg.Steps,
				Margin:         cfg.Margin,
				OverlapPenalty: cfg.OverlapPenalty,
				RadiusFactor:   cfg.OverlapRadiusFactor,
				ResidueRadii:   cfg.ResidueRadii(),
				OnNonFinite:    recorder.ObserveNonFinite,
			},
			SaveProfiles: cfg.SavePotentials,
			Sink:         store,
			Observer:     recorder,
		},
		Metrics:     recorder,
		RunID:       runID,
		Fingerprint: cfg.Fingerprint(),
		Logger:      logger,
	}

	if cfg.SaveToDB {
		ledger, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer ledger.Close()
		pcfg.Ledger = ledger
		logger.Info("database opened", "path", ledger.Path())
	}

	jobs := pipeline.Plan(targets, molecules, cfg.OmegaSet(), cfg.NPShape, cfg.MFPT)
	logger.Info("starting scan",
		"run", runID,
		"molecules", len(molecules),
		"nanoparticles", len(targets),
		"jobs", len(jobs),
		"workers", cfg.Workers,
		"seed", seed,
	)

	rep := report.NewReport(runID, pcfg.Fingerprint, time.Now())
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return pipeline.DefaultPipeline(pcfg) },
		pipeline.WithBatchLogger(logger),
	)
	scanErr := bp.ProcessBatchWithCallback(ctx, jobs, func(job *pipeline.Job, _ int) {
		entry, err := reportEntry(job)
		if err != nil {
			logger.Warn("cannot summarise grid", "path", job.Path, "error", err)
			return
		}
		rep.Add(entry)
	})

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if scanErr != nil {
		return fmt.Errorf("scan failed: %w", scanErr)
	}

	return outputReport(cfg, rep, stdout)
}

// loadMolecules reads every PDB target.
func loadMolecules(cfg *config.Config, logger *slog.Logger) ([]*model.Molecule, error) {
	paths, err := input.CollectTargets(cfg.PDBTargets, input.PDBExt, logger)
	if err != nil {
		return nil, err
	}

	opts := input.PDBOptions{
		Residues:         cfg.ResidueIDs(),
		DisorderStrategy: cfg.DisorderStrategy,
		DisorderMin:      cfg.DisorderMin,
		DisorderMax:      cfg.DisorderMax,
	}
	molecules := make([]*model.Molecule, 0, len(paths))
	for _, path := range paths {
		mol, err := input.ReadPDB(path, opts)
		if err != nil {
			return nil, err
		}
		logger.Debug("read molecule", "name", mol.Name, "beads", len(mol.Beads))
		molecules = append(molecules, mol)
	}
	return molecules, nil
}

// loadTargets reads or generates the nanoparticles and loads the PMF table
// of each.
func loadTargets(cfg *config.Config, logger *slog.Logger) ([]pipeline.Target, error) {
	var paths []string
	var err error
	if len(cfg.NPTargets) == 0 {
		dir := filepath.Join(cfg.OutputDir, "nps", configName(cfg.ConfigFilePath)+"_NPs")
		paths, err = input.GenerateNPs(dir, input.GenerateOptions{
			Radii:          cfg.NPRadii,
			ZetaPotentials: cfg.ZetaPotentials,
			Shape:          cfg.NPShape,
			HamakerFile:    cfg.HamakerFile,
			PMFDir:         cfg.PMFDir,
			PMFCutoff:      cfg.PMFCutoff,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("generated nanoparticles", "dir", dir, "count", len(paths))
	} else {
		paths, err = input.CollectTargets(cfg.NPTargets, input.NPExt, logger)
		if err != nil {
			return nil, err
		}
	}

	residues := make([]string, len(cfg.Residues))
	for i, r := range cfg.Residues {
		residues[i] = r.Name
	}

	targets := make([]pipeline.Target, 0, len(paths))
	for _, path := range paths {
		np, err := input.ReadNP(path)
		if err != nil {
			return nil, err
		}
		prepareNanoparticle(np, cfg)

		table, err := input.LoadPMFTable(np, residues, cfg.PMFDir)
		if err != nil {
			return nil, fmt.Errorf("np %s: %w", np.Name, err)
		}
		logger.Info("loaded nanoparticle",
			"np", np.Name,
			"from", np.InnerBound,
			"to", np.OuterBound+cfg.Margin,
		)
		targets = append(targets, pipeline.Target{Nanoparticle: np, Potential: table})
	}
	return targets, nil
}

// prepareNanoparticle applies the potential mode and the bounding radius
// override.
func prepareNanoparticle(np *model.Nanoparticle, cfg *config.Config) {
	np.Isotropic = cfg.SumPotentials
	if cfg.BoundingRadius >= 0 {
		np.InnerBound = cfg.BoundingRadius
		np.OuterBound = cfg.BoundingRadius + boundingOuterOffset
	}
}

// reportEntry summarises a finished job. Skipped jobs are summarised from
// the grid already on disk.
func reportEntry(job *pipeline.Job) (report.Entry, error) {
	if job.Stats != nil {
		return report.Entry{Stats: *job.Stats, Path: job.Path}, nil
	}
	g, err := output.ReadGrid(job.Path)
	if err != nil {
		return report.Entry{}, err
	}
	stats := summary.Compute(g)
	stats.Shape = job.Key.Shape
	return report.Entry{Stats: stats, Path: job.Path}, nil
}

// reportFormat returns the format selected by the report flags.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatSimple
	}
}

// outputReport writes the summary report in the requested format.
func outputReport(cfg *config.Config, rep *report.Report, stdout io.Writer) error {
	out := stdout
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := report.New(out, reportFormat(cfg))
	if err != nil {
		return err
	}
	_, err = w.Write(rep)
	return err
}
