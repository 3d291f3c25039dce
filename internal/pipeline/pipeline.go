package pipeline

import (
	"context"
	"log/slog"
)

// Step is one stage of a job. Steps see the job as the earlier steps left it.
type Step interface {
	Do(ctx context.Context, job *Job) error

	// Name identifies the step in logs and in Job.PerformedSteps.
	Name() string
}

// Pipeline runs an ordered list of steps over one job at a time.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger replaces slog.Default as the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New returns an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step; it runs after every step already added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	for _, s := range steps {
		p.AddStep(s)
	}
}

// Execute runs the steps over job until one fails, the job is marked
// skipped, or ctx is cancelled. Cancellation is checked between steps; a
// scan checks it itself between bins.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	logger := p.logger.With(
		"molecule", job.Key.Molecule,
		"np", job.Key.Nanoparticle,
		"omega", job.Key.Omega,
	)

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("job cancelled", "before", step.Name(), "reason", err)
			job.Err = err
			return err
		}

		logger.Debug("running step", "step", step.Name())
		if err := step.Do(ctx, job); err != nil {
			logger.Error("step failed", "step", step.Name(), "error", err)
			job.Err = err
			return err
		}
		job.PerformedSteps = append(job.PerformedSteps, step.Name())

		if job.Skipped {
			logger.Info("output exists, skipping", "path", job.Path)
			return nil
		}
	}
	return nil
}

// StepCount reports how many steps were added.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames lists the step names in run order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}
