package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/unitedatom/internal/database"
	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/scan"
	"github.com/nao1215/unitedatom/internal/summary"
)

// ErrNoGrid is returned by steps that need a grid when none was produced.
var ErrNoGrid = errors.New("job has no grid")

// GridStore is where grids are written and looked up.
type GridStore interface {
	GridPath(key model.ScanKey) string
	Exists(key model.ScanKey) bool
	WriteGrid(g *model.Grid) (string, error)
}

// Ledger persists a record of each written grid.
type Ledger interface {
	Record(ctx context.Context, rec *database.ScanRecord) (int64, error)
}

// ScanMetrics counts scan outcomes.
type ScanMetrics interface {
	ScanCompleted(shape string, elapsed time.Duration)
	ScanSkipped()
}

// CheckpointStep marks the job skipped when its grid file already exists.
type CheckpointStep struct {
	store   GridStore
	metrics ScanMetrics
}

// NewCheckpointStep creates a checkpoint step reading from store. metrics
// may be nil.
func NewCheckpointStep(store GridStore, metrics ScanMetrics) *CheckpointStep {
	return &CheckpointStep{store: store, metrics: metrics}
}

// Name returns the step name.
func (s *CheckpointStep) Name() string { return "checkpoint" }

// Do implements Step.
func (s *CheckpointStep) Do(_ context.Context, job *Job) error {
	if s.store.Exists(job.Key) {
		job.Skipped = true
		job.Path = s.store.GridPath(job.Key)
		if s.metrics != nil {
			s.metrics.ScanSkipped()
		}
	}
	return nil
}

// ScanStep computes the orientation grid using the dispatcher's workers.
type ScanStep struct {
	dispatcher *scan.Dispatcher
	opts       scan.Options
	logger     *slog.Logger
}

// NewScanStep creates a scan step. opts is shared by every job; the
// scanner copies it.
func NewScanStep(dispatcher *scan.Dispatcher, opts scan.Options, logger *slog.Logger) *ScanStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanStep{dispatcher: dispatcher, opts: opts, logger: logger}
}

// Name returns the step name.
func (s *ScanStep) Name() string { return "scan" }

// Do implements Step.
func (s *ScanStep) Do(ctx context.Context, job *Job) error {
	scanner, err := scan.NewScanner(job.Molecule, job.Nanoparticle, job.Potential, job.Key, s.opts, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	start := time.Now()
	grid, err := s.dispatcher.Run(ctx, scanner)
	if err != nil {
		return fmt.Errorf("scan of %s on %s failed: %w", job.Key.Molecule, job.Key.Nanoparticle, err)
	}
	job.Elapsed = time.Since(start)
	job.Grid = grid
	return nil
}

// WriteStep writes the grid to the store.
type WriteStep struct {
	store GridStore
}

// NewWriteStep creates a write step.
func NewWriteStep(store GridStore) *WriteStep {
	return &WriteStep{store: store}
}

// Name returns the step name.
func (s *WriteStep) Name() string { return "write" }

// Do implements Step.
func (s *WriteStep) Do(_ context.Context, job *Job) error {
	if job.Grid == nil {
		return ErrNoGrid
	}
	path, err := s.store.WriteGrid(job.Grid)
	if err != nil {
		return err
	}
	job.Path = path
	return nil
}

// SummaryStep computes the summary statistics of the grid.
type SummaryStep struct{}

// NewSummaryStep creates a summary step.
func NewSummaryStep() *SummaryStep { return &SummaryStep{} }

// Name returns the step name.
func (s *SummaryStep) Name() string { return "summary" }

// Do implements Step.
func (s *SummaryStep) Do(_ context.Context, job *Job) error {
	if job.Grid == nil {
		return ErrNoGrid
	}
	stats := summary.Compute(job.Grid)
	job.Stats = &stats
	return nil
}

// LedgerStep records the finished job in the scan ledger.
type LedgerStep struct {
	ledger      Ledger
	runID       string
	fingerprint string
}

// NewLedgerStep creates a ledger step. Every record carries runID and the
// parameter fingerprint of the run.
func NewLedgerStep(ledger Ledger, runID, fingerprint string) *LedgerStep {
	return &LedgerStep{ledger: ledger, runID: runID, fingerprint: fingerprint}
}

// Name returns the step name.
func (s *LedgerStep) Name() string { return "ledger" }

// Do implements Step.
func (s *LedgerStep) Do(ctx context.Context, job *Job) error {
	if job.Stats == nil {
		return errors.New("ledger step requires summary statistics")
	}
	rec := &database.ScanRecord{
		RunID:            s.runID,
		Molecule:         job.Key.Molecule,
		Nanoparticle:     job.Key.Nanoparticle,
		Shape:            job.Key.Shape.String(),
		Radius:           job.Key.Radius,
		Zeta:             job.Key.Zeta,
		Omega:            job.Key.Omega,
		MFPT:             job.Key.MFPT,
		OutputPath:       job.Path,
		Fingerprint:      s.fingerprint,
		SimpleAverage:    job.Stats.Simple,
		BoltzmannAverage: job.Stats.Boltzmann,
		MeanError:        job.Stats.Error,
		MinEnergy:        job.Stats.Min,
		Elapsed:          job.Elapsed,
	}
	if _, err := s.ledger.Record(ctx, rec); err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// MetricsStep counts the completed scan and its duration.
type MetricsStep struct {
	metrics ScanMetrics
}

// NewMetricsStep creates a metrics step.
func NewMetricsStep(metrics ScanMetrics) *MetricsStep {
	return &MetricsStep{metrics: metrics}
}

// Name returns the step name.
func (s *MetricsStep) Name() string { return "metrics" }

// Do implements Step.
func (s *MetricsStep) Do(_ context.Context, job *Job) error {
	s.metrics.ScanCompleted(job.Key.Shape.String(), job.Elapsed)
	return nil
}

// Config holds the collaborators of a standard scan pipeline. Ledger and
// Metrics are optional.
type Config struct {
	Store       GridStore
	Dispatcher  *scan.Dispatcher
	ScanOptions scan.Options
	Ledger      Ledger
	Metrics     ScanMetrics
	RunID       string
	Fingerprint string
	Logger      *slog.Logger
}

// DefaultPipeline creates the standard scan pipeline:
// checkpoint, scan, write, summary, then ledger and metrics when set.
func DefaultPipeline(cfg Config) *Pipeline {
	p := New(WithLogger(cfg.Logger))
	p.AddSteps(
		NewCheckpointStep(cfg.Store, cfg.Metrics),
		NewScanStep(cfg.Dispatcher, cfg.ScanOptions, cfg.Logger),
		NewWriteStep(cfg.Store),
		NewSummaryStep(),
	)
	if cfg.Ledger != nil {
		p.AddStep(NewLedgerStep(cfg.Ledger, cfg.RunID, cfg.Fingerprint))
	}
	if cfg.Metrics != nil {
		p.AddStep(NewMetricsStep(cfg.Metrics))
	}
	return p
}
