package stream

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nao1215/uxaudit/internal/model"
	"github.com/nao1215/uxaudit/internal/pipeline"
)

// collect streams b to completion and returns the events.
func collect(t *testing.T, b *Bridge) []Event {
	t.Helper()

	var events []Event
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.Stream(ctx, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	return events
}

func progress(msgs ...string) []Event {
	out := make([]Event, len(msgs))
	for i, m := range msgs {
		out[i] = Event{Type: EventProgress, Message: m}
	}
	return out
}

var ignoreTime = cmpopts.IgnoreFields(Event{}, "Time")

func TestQueue(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	for i := 0; i < 100; i++ {
		q.Emit(model.NewProgressEvent(fmt.Sprint(i)))
	}
	if q.Len() != 100 {
		t.Fatalf("expected 100 queued events, got %d", q.Len())
	}
	select {
	case <-q.Ready():
	default:
		t.Fatal("expected a ready signal")
	}
	items := q.Drain()
	for i, ev := range items {
		if ev.Message != fmt.Sprint(i) {
			t.Fatalf("item %d out of order: %q", i, ev.Message)
		}
	}
	if q.Len() != 0 || len(q.Drain()) != 0 {
		t.Error("expected an empty queue after drain")
	}
}

func TestBridgeStream(t *testing.T) {
	t.Parallel()

	t.Run("outcome available before queued messages are read", func(t *testing.T) {
		t.Parallel()

		q := NewQueue()
		done := make(chan model.Outcome, 1)
		q.Emit(model.NewProgressEvent("m1"))
		q.Emit(model.NewProgressEvent("m2"))
		q.Emit(model.NewProgressEvent("m3"))
		done <- model.Success("abc")

		got := collect(t, NewBridge(q, done))
		want := append(progress("m1", "m2", "m3"), Event{Type: EventComplete, ReportURL: "api/download/abc"})
		if diff := cmp.Diff(want, got, ignoreTime); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("concurrent producer never loses or reorders messages", func(t *testing.T) {
		t.Parallel()

		for iter := 0; iter < 50; iter++ {
			q := NewQueue()
			done := make(chan model.Outcome, 1)
			const n = 200
			go func() {
				for i := 0; i < n; i++ {
					q.Emit(model.NewProgressEvent(fmt.Sprint(i)))
				}
				done <- model.Failure(errors.New("capture failed"))
			}()

			got := collect(t, NewBridge(q, done))
			if len(got) != n+1 {
				t.Fatalf("iteration %d: expected %d events, got %d", iter, n+1, len(got))
			}
			for i := 0; i < n; i++ {
				if got[i].Type != EventProgress || got[i].Message != fmt.Sprint(i) {
					t.Fatalf("iteration %d: event %d is %+v", iter, i, got[i])
				}
			}
			if last := got[n]; last.Type != EventError || last.Message != "capture failed" {
				t.Fatalf("iteration %d: unexpected terminal event %+v", iter, last)
			}
		}
	})

	t.Run("no events after the terminal event", func(t *testing.T) {
		t.Parallel()

		q := NewQueue()
		done := make(chan model.Outcome, 1)
		done <- model.Success("abc")
		b := NewBridge(q, done)
		_ = collect(t, b)

		q.Emit(model.NewProgressEvent("late"))
		err := b.Stream(context.Background(), func(Event) error {
			t.Error("unexpected event after terminal")
			return nil
		})
		if !errors.Is(err, ErrFinished) {
			t.Errorf("expected ErrFinished, got %v", err)
		}
	})

	t.Run("empty outcome is an error event", func(t *testing.T) {
		t.Parallel()

		done := make(chan model.Outcome, 1)
		done <- model.Outcome{}
		got := collect(t, NewBridge(NewQueue(), done))
		if len(got) != 1 || got[0].Type != EventError {
			t.Errorf("expected one error event, got %+v", got)
		}
	})

	t.Run("custom report url", func(t *testing.T) {
		t.Parallel()

		done := make(chan model.Outcome, 1)
		done <- model.Success("abc")
		b := NewBridge(NewQueue(), done, WithReportURL(func(ref model.ArtifactRef) string {
			return "/reports/" + ref.String() + ".pdf"
		}))
		got := collect(t, b)
		if got[0].ReportURL != "/reports/abc.pdf" {
			t.Errorf("unexpected report url %q", got[0].ReportURL)
		}
	})

	t.Run("consumer cancellation stops the stream", func(t *testing.T) {
		t.Parallel()

		q := NewQueue()
		b := NewBridge(q, make(chan model.Outcome))
		q.Emit(model.NewProgressEvent("m1"))

		ctx, cancel := context.WithCancel(context.Background())
		var got []Event
		err := b.Stream(ctx, func(ev Event) error {
			got = append(got, ev)
			cancel()
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected one event before cancellation, got %+v", got)
		}
	})

	t.Run("emit failure stops the stream", func(t *testing.T) {
		t.Parallel()

		q := NewQueue()
		q.Emit(model.NewProgressEvent("m1"))
		q.Emit(model.NewProgressEvent("m2"))
		gone := errors.New("client gone")

		calls := 0
		err := NewBridge(q, make(chan model.Outcome)).Stream(context.Background(), func(Event) error {
			calls++
			return gone
		})
		if !errors.Is(err, gone) || calls != 1 {
			t.Errorf("expected one call and the emit error, got %d calls and %v", calls, err)
		}
	})
}

// stubRunner emits fixed messages and finishes with outcome.
type stubRunner struct {
	messages []string
	outcome  model.Outcome
	gotCtx   chan context.Context
}

func (r *stubRunner) Run(ctx context.Context, targetURL string, sink pipeline.Sink) *model.Audit {
	if r.gotCtx != nil {
		r.gotCtx <- ctx
		<-ctx.Done()
	}
	for _, m := range r.messages {
		sink.Emit(model.NewProgressEvent(m))
	}
	audit := model.NewAudit(targetURL)
	audit.Finish(r.outcome)
	return audit
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("streams progress then the outcome", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{
			messages: []string{"capturing", "analyzing", "rendering", "generating"},
			outcome:  model.Success("ref-1"),
		}
		run := Start(context.Background(), runner, "https://example.com")
		got := collect(t, run.Bridge)

		want := append(progress("capturing", "analyzing", "rendering", "generating"),
			Event{Type: EventComplete, ReportURL: "api/download/ref-1"})
		if diff := cmp.Diff(want, got, ignoreTime); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
		if a := run.Wait(); a.TargetURL != "https://example.com" || a.State != model.StateDone {
			t.Errorf("unexpected audit %+v", a)
		}
	})

	t.Run("abandoned run still finishes after cancellation", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{gotCtx: make(chan context.Context, 1), outcome: model.Failure(context.Canceled)}
		ctx, cancel := context.WithCancel(context.Background())
		run := Start(ctx, runner, "https://example.com")
		<-runner.gotCtx
		cancel()

		finished := make(chan *model.Audit, 1)
		go func() { finished <- run.Wait() }()
		select {
		case a := <-finished:
			if a.State != model.StateFailed {
				t.Errorf("expected failed audit, got %s", a.State)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("run did not finish after cancellation")
		}
	})
}
