package stream

import (
	"context"
	"errors"

	"github.com/nao1215/uxaudit/internal/model"
	"github.com/nao1215/uxaudit/internal/pipeline"
)

// ErrFinished is returned by Stream once the terminal event was emitted.
var ErrFinished = errors.New("stream already finished")

var errNoOutcome = errors.New("audit finished without an outcome")

// Bridge multiplexes a progress queue and a terminal outcome into one
// ordered event sequence. A Bridge has a single consumer.
type Bridge struct {
	queue     *Queue
	done      <-chan model.Outcome
	reportURL func(model.ArtifactRef) string
	finished  bool
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithReportURL sets how an artifact reference becomes the report URL of
// the complete event. The default is DownloadPath.
func WithReportURL(fn func(model.ArtifactRef) string) BridgeOption {
	return func(b *Bridge) {
		if fn != nil {
			b.reportURL = fn
		}
	}
}

// NewBridge creates a bridge over q. done must receive exactly one outcome,
// sent after the last Emit on q.
func NewBridge(q *Queue, done <-chan model.Outcome, opts ...BridgeOption) *Bridge {
	b := &Bridge{queue: q, done: done, reportURL: DownloadPath}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Stream passes every event to emit until the terminal event has been
// emitted, then returns nil. It returns early with ctx's error when ctx
// ends, or with emit's error when emit fails; no event is emitted after
// either.
func (b *Bridge) Stream(ctx context.Context, emit func(Event) error) error {
	if b.finished {
		return ErrFinished
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-b.queue.Ready():
			if err := b.flush(emit); err != nil {
				return err
			}

		case o := <-b.done:
			// The run may have queued its last message just before it
			// finished; drain it before the terminal event.
			if err := b.flush(emit); err != nil {
				return err
			}
			b.finished = true
			return emit(terminalEvent(o, b.reportURL))
		}
	}
}

func (b *Bridge) flush(emit func(Event) error) error {
	for _, ev := range b.queue.Drain() {
		if err := emit(ProgressEvent(ev)); err != nil {
			return err
		}
	}
	return nil
}

// Run is an audit running in its own goroutine with a Bridge over its
// progress.
type Run struct {
	*Bridge

	audit    *model.Audit
	finished chan struct{}
}

// Start runs targetURL on runner in a new goroutine and returns its bridge.
// Cancelling ctx cancels the run. The goroutine always finishes and never
// blocks on an absent consumer.
func Start(ctx context.Context, runner pipeline.Runner, targetURL string, opts ...BridgeOption) *Run {
	q := NewQueue()
	done := make(chan model.Outcome, 1)
	r := &Run{
		Bridge:   NewBridge(q, done, opts...),
		finished: make(chan struct{}),
	}

	go func() {
		audit := runner.Run(ctx, targetURL, q)
		if audit.Outcome == nil {
			audit.Finish(model.Failure(errNoOutcome))
		}
		r.audit = audit
		close(r.finished)
		done <- *audit.Outcome
	}()

	return r
}

// Wait blocks until the run has finished and returns its audit.
func (r *Run) Wait() *model.Audit {
	<-r.finished
	return r.audit
}
