package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/uxaudit/internal/model"
)

// Runner runs a single audit.
type Runner interface {
	Run(ctx context.Context, targetURL string, sink Sink) *model.Audit
}

// BatchRunner audits many URLs concurrently. Runs share nothing but the
// Runner, whose collaborators must be safe for concurrent use.
type BatchRunner struct {
	runner      Runner
	concurrency int
	logger      *slog.Logger
	progress    func(index int, targetURL string, ev model.ProgressEvent)
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress receives every progress event of every run. It is called
// from the run's goroutine and must be safe for concurrent use.
func WithProgress(fn func(index int, targetURL string, ev model.ProgressEvent)) BatchOption {
	return func(b *BatchRunner) {
		b.progress = fn
	}
}

// NewBatchRunner creates a BatchRunner with a concurrency of 2.
func NewBatchRunner(runner Runner, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		runner:      runner,
		concurrency: 2,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Run audits every URL and returns one finished audit per URL, in input
// order. A failed audit does not stop the others. The error is non-nil only
// when ctx was cancelled; audits that never started are then marked failed.
func (b *BatchRunner) Run(ctx context.Context, urls []string) ([]*model.Audit, error) {
	b.logger.Info("starting batch", "total", len(urls), "concurrency", b.concurrency)
	start := time.Now()

	audits := make([]*model.Audit, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sink := Discard
			if b.progress != nil {
				sink = SinkFunc(func(ev model.ProgressEvent) { b.progress(i, u, ev) })
			}

			// Each goroutine writes only its own index.
			audits[i] = b.runner.Run(gctx, u, sink)
			if !audits[i].Outcome.Succeeded() {
				b.logger.Warn("audit failed", "url", u, "reason", audits[i].Outcome.Reason())
			}
			return nil
		})
	}
	err := g.Wait()

	for i, u := range urls {
		if audits[i] == nil {
			audits[i] = model.NewAudit(u)
			audits[i].Finish(model.Failure(context.Cause(ctx)))
		}
	}

	b.logger.Info("batch complete", "total", len(urls), "elapsed", time.Since(start))
	return audits, err
}
