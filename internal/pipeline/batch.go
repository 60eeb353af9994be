package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitegrab/internal/model"
	"github.com/nao1215/sitegrab/internal/scope"
)

// DefaultConcurrency is the number of seeds crawled at once when no
// limit is configured.
const DefaultConcurrency = 4

// Factory builds the pipeline for one job.
type Factory func(job *model.Job) *Pipeline

// BatchProcessor crawls several seeds concurrently.
type BatchProcessor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger for batch-level messages.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that runs the pipeline built
// by factory for every job.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs one job per seed and returns the jobs in seed order.
//
// A failing job does not stop the others; its errors stay on the job.
// The returned error is the context error when the batch was cancelled.
// Jobs that never started are returned marked as interrupted.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.Job, error) {
	bp.logger.Info("starting batch", "seeds", len(seeds), "concurrency", bp.concurrency)
	start := time.Now()

	jobs := make([]*model.Job, len(seeds))
	for i, seed := range seeds {
		jobs[i] = model.NewJob(seed, scope.ExtractDomain(seed), false)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				job.Interrupted = true
				return err
			}

			bp.logger.Info("crawling seed", "seed", job.Seed, "index", i+1, "total", len(jobs))
			if err := bp.factory(job).Execute(gctx, job); err != nil {
				bp.logger.Warn("job failed", "seed", job.Seed, "error", err)
				return nil
			}
			bp.logger.Info("job completed", "seed", job.Seed, "run_id", job.RunID)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	bp.logger.Info("batch complete", "seeds", len(seeds), "elapsed", time.Since(start))
	return jobs, err
}
