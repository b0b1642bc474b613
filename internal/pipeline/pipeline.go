package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/uxaudit/internal/model"
)

// Step is one stage of an audit.
type Step interface {
	// Do performs the stage on audit. A returned error ends the run;
	// soft failures are recorded on audit and return nil.
	Do(ctx context.Context, audit *model.Audit) error

	// Name returns the step's name for logging purposes.
	Name() string

	// State is the state the audit is in while the step runs.
	State() model.State

	// Announce returns the progress message emitted before Do.
	Announce(audit *model.Audit) string
}

// Sink receives progress events in emission order.
type Sink interface {
	Emit(ev model.ProgressEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev model.ProgressEvent)

// Emit implements Sink.
func (f SinkFunc) Emit(ev model.ProgressEvent) { f(ev) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(model.ProgressEvent) {})

// StageError is a fatal stage failure.
type StageError struct {
	State model.State
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Timeouts bounds each stage. Zero means no limit.
type Timeouts struct {
	Capture  time.Duration
	Analyze  time.Duration
	Render   time.Duration
	Assemble time.Duration
}

func (t Timeouts) forState(s model.State) time.Duration {
	switch s {
	case model.StateCapturing:
		return t.Capture
	case model.StateAnalyzing:
		return t.Analyze
	case model.StateRendering:
		return t.Render
	case model.StateAssembling:
		return t.Assemble
	default:
		return 0
	}
}

// Pipeline runs steps in order. A Pipeline holds no per-run state, so one
// instance may run many audits concurrently.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	timeouts Timeouts
	logger   *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTimeouts sets per-stage timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(p *Pipeline) {
		p.timeouts = t
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0, 4)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Run audits targetURL and returns the finished audit. The returned audit
// always carries an Outcome.
func (p *Pipeline) Run(ctx context.Context, targetURL string, sink Sink) *model.Audit {
	audit := model.NewAudit(targetURL)
	p.Execute(ctx, audit, sink)
	return audit
}

// Execute runs every step on audit and records the terminal outcome.
//
// Cancellation is checked before each step. A step that panics fails the
// run instead of the process.
func (p *Pipeline) Execute(ctx context.Context, audit *model.Audit, sink Sink) (outcome model.Outcome) {
	if sink == nil {
		sink = Discard
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("step panicked", "url", audit.TargetURL, "state", audit.State, "panic", rec)
			outcome = p.finish(audit, model.Failure(&StageError{
				State: audit.State,
				Err:   fmt.Errorf("internal error: %v", rec),
			}))
		}
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "url", audit.TargetURL, "reason", err)
			return p.finish(audit, model.Failure(&StageError{State: step.State(), Err: err}))
		}

		audit.State = step.State()
		sink.Emit(model.NewProgressEvent(step.Announce(audit)))
		p.logger.Info("executing step", "step", step.Name(), "url", audit.TargetURL)

		if err := p.do(ctx, step, audit); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "url", audit.TargetURL, "error", err)
			return p.finish(audit, model.Failure(&StageError{State: step.State(), Err: err}))
		}
		p.logger.Debug("step completed", "step", step.Name(), "url", audit.TargetURL)
	}

	return p.finish(audit, model.Success(audit.Artifact))
}

// do runs one step under its stage timeout.
func (p *Pipeline) do(ctx context.Context, step Step, audit *model.Audit) error {
	if d := p.timeouts.forState(step.State()); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return step.Do(ctx, audit)
}

func (p *Pipeline) finish(audit *model.Audit, o model.Outcome) model.Outcome {
	audit.Finish(o)
	p.logger.Info("audit finished",
		"url", audit.TargetURL,
		"state", audit.State,
		"elapsed", time.Since(audit.StartedAt),
	)
	return *audit.Outcome
}
