package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchProcessor scans multiple targets concurrently.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each target.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Non-positive values keep the default of 4.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch runs one pipeline per target. The returned jobs are in the
// same order as targets. A failing target only records its error in its
// job; the returned error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*Job, error) {
	return bp.process(ctx, targets, nil)
}

// ProcessBatchWithCallback is like ProcessBatch but calls callback as each
// job finishes. The callback runs on the worker goroutine.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, targets []string, callback func(job *Job, index int)) ([]*Job, error) {
	return bp.process(ctx, targets, callback)
}

func (bp *BatchProcessor) process(ctx context.Context, targets []string, callback func(*Job, int)) ([]*Job, error) {
	bp.logger.Debug("starting batch processing",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own slot.
	jobs := make([]*Job, len(targets))
	for i, target := range targets {
		jobs[i] = NewJob(target)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				job.Err = gctx.Err()
				job.TimedOut = true
				return gctx.Err()
			default:
			}

			if err := bp.pipelineFactory().Execute(gctx, job); err != nil {
				bp.logger.Warn("scan failed",
					"target", job.Target,
					"error", err,
				)
			}

			if callback != nil {
				callback(job, i)
			}

			// Per-target failures stay in the job.
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch processing complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return jobs, err
}
