package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/vibesense/internal/dom"
	"github.com/nao1215/vibesense/internal/model"
)

// Job carries one target through the pipeline.
type Job struct {
	// Target is the URL or path given by the user.
	Target string

	// Documents are the loaded pages. A crawl yields more than one.
	Documents []*dom.Document

	// Results holds one scan result per document, in the same order.
	Results []*model.ScanResult

	// Err is the error that stopped the job, if any.
	Err error

	// PerformedSteps lists the names of the steps that ran.
	PerformedSteps []string

	// TimedOut is set when the context expired before all steps ran.
	TimedOut bool
}

// NewJob creates an empty job for target.
func NewJob(target string) *Job {
	return &Job{
		Target:         target,
		Documents:      make([]*dom.Document, 0),
		Results:        make([]*model.ScanResult, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step against the job. Returning an error marks the
	// job as failed.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	logger *slog.Logger

	// continueOnError keeps running later steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The last error is kept in the job.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given steps.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           append([]Step(nil), steps...),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step; steps handle their own timeouts.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"target", job.Target,
				"reason", ctx.Err(),
			)
			job.TimedOut = true
			job.Err = ctx.Err()
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"target", job.Target,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"target", job.Target,
				"error", err,
			)
			job.Err = err
			if !p.continueOnError {
				return err
			}
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
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
