package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/sitegrab/internal/model"
)

// Step is one stage of a crawl job.
type Step interface {
	// Do executes the step. Failures that should not stop the job are
	// logged and reported as nil.
	Do(ctx context.Context, job *model.Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default is used when unset.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError makes the pipeline run the remaining steps after a
// failure. Failures are still recorded on the job.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against job.
//
// The context is checked before each step; once it is done the job is
// marked interrupted and the context error returned. Without
// continue-on-error the first failing step ends the run with its error.
func (p *Pipeline) Execute(ctx context.Context, job *model.Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "seed", job.Seed, "reason", err)
			job.Interrupted = true
			return err
		}

		p.logger.Debug("executing step", "step", step.Name(), "seed", job.Seed)
		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "seed", job.Seed, "error", err)
			job.AddError(err)
			if !p.continueOnError {
				return err
			}
			continue
		}
		job.AddStep(step.Name())
	}
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
