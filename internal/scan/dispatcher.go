package scan

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/orient"
)

// Range is a contiguous block of bins assigned to one task.
type Range struct {
	Offset int
	Count  int
}

// Partition splits total bins into tasks contiguous ranges. The first
// total mod tasks ranges get one extra bin, so sizes differ by at most one.
func Partition(total, tasks int) []Range {
	if tasks < 1 {
		tasks = 1
	}
	per, rem := total/tasks, total%tasks
	out := make([]Range, tasks)
	for t := range out {
		out[t].Offset = t*per + min(t, rem)
		out[t].Count = per
		if t < rem {
			out[t].Count++
		}
	}
	return out
}

// Dispatcher runs a Scanner across bin ranges concurrently.
// Each task writes only its own slice of the result array, so no locking
// is needed; errgroup provides the join.
type Dispatcher struct {
	// workers is both the number of tasks and the concurrency limit.
	workers int

	// seed is the master seed from which every task's generator derives.
	seed uint64

	logger *slog.Logger
}

// DispatchOption configures a Dispatcher.
type DispatchOption func(*Dispatcher)

// WithWorkers sets the number of tasks. Default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) DispatchOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithSeed sets the master seed.
func WithSeed(seed uint64) DispatchOption {
	return func(d *Dispatcher) {
		d.seed = seed
	}
}

// WithDispatchLogger sets a custom logger.
func WithDispatchLogger(logger *slog.Logger) DispatchOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatchOption) *Dispatcher {
	d := &Dispatcher{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Workers returns the number of tasks.
func (d *Dispatcher) Workers() int { return d.workers }

// Run scans every bin and returns the finished grid. The first task error
// cancels the rest and is returned.
func (d *Dispatcher) Run(ctx context.Context, s *Scanner) (*model.Grid, error) {
	bins := s.Bins()
	results := make([]model.BinResult, bins.Count())
	ranges := Partition(len(results), d.workers)

	d.logger.Info("starting orientation scan",
		"molecule", s.Key().Molecule,
		"np", s.Key().Nanoparticle,
		"bins", len(results),
		"workers", d.workers,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for t, r := range ranges {
		if r.Count == 0 {
			continue
		}
		g.Go(func() error {
			rng := orient.NewTaskRNG(d.seed, t)
			return s.ScanRange(ctx, r.Offset, results[r.Offset:r.Offset+r.Count], rng)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.logger.Info("orientation scan complete",
		"molecule", s.Key().Molecule,
		"np", s.Key().Nanoparticle,
		"elapsed", time.Since(start),
	)

	return &model.Grid{Key: s.Key(), Delta: bins.Delta, Bins: results}, nil
}
