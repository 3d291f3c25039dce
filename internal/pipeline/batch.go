package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchProcessor runs a fresh pipeline per job. Each scan already spreads
// its bins over the dispatcher workers, so jobs run one at a time unless
// WithConcurrency raises the limit.
type BatchProcessor struct {
	newPipeline func() *Pipeline
	limit       int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger replaces slog.Default as the batch logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency caps the number of jobs in flight. Values below 1 are
// ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.limit = n
		}
	}
}

// NewBatchProcessor returns a processor building one pipeline per job with
// newPipeline.
func NewBatchProcessor(newPipeline func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{newPipeline: newPipeline, limit: 1}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch executes every job and returns them in input order. The
// first failing job cancels the rest and its error is returned; jobs that
// never started keep a nil Err and no performed steps.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) ([]*Job, error) {
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(*Job, int) {})
	return jobs, err
}

// ProcessBatchWithCallback executes every job and calls done for each one
// that finished without error, skipped jobs included. With a limit above 1,
// done is called from several goroutines.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, jobs []*Job, done func(job *Job, index int)) error {
	start := time.Now()
	bp.logger.Info("batch started", "jobs", len(jobs), "concurrency", bp.limit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bp.logger.Info("job started",
				"molecule", job.Key.Molecule,
				"np", job.Key.Nanoparticle,
				"omega", job.Key.Omega,
				"job", i+1,
				"of", len(jobs),
			)
			if err := bp.newPipeline().Execute(gctx, job); err != nil {
				return err
			}
			done(job, i)
			return nil
		})
	}
	err := g.Wait()

	bp.logger.Info("batch finished", "jobs", len(jobs), "elapsed", time.Since(start))
	return err
}
