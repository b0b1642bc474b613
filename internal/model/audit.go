package model

import "time"

// State is a step of the audit state machine.
type State int

const (
	// StatePending is the state before the first stage starts.
	StatePending State = iota

	// StateCapturing takes the screenshot.
	StateCapturing

	// StateAnalyzing sends the screenshot to the vision model.
	StateAnalyzing

	// StateRendering draws findings on the screenshot.
	StateRendering

	// StateAssembling builds and stores the report.
	StateAssembling

	// StateDone is terminal and successful.
	StateDone

	// StateFailed is terminal and reachable from any state.
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCapturing:
		return "capturing"
	case StateAnalyzing:
		return "analyzing"
	case StateRendering:
		return "rendering"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Audit is the working state of one run. It is owned by a single pipeline
// goroutine and is never shared between runs.
type Audit struct {
	// TargetURL is the page being audited.
	TargetURL string

	// PageTitle is the document title reported by the capture backend, if any.
	PageTitle string

	// StartedAt is when the run was created.
	StartedAt time.Time

	// State is the current state machine position.
	State State

	// Screenshot is set by capture and released by rendering.
	Screenshot *RasterImage

	// Analysis is set by the analysis stage, possibly as a fallback.
	Analysis *AnalysisResult

	// Annotated is set by rendering and released by assembly.
	Annotated *RasterImage

	// Overlays is the number of findings drawn by the renderer.
	Overlays int

	// Artifact is set by assembly once the report is stored.
	Artifact ArtifactRef

	// Outcome is set exactly once when the run reaches a terminal state.
	Outcome *Outcome
}

// NewAudit creates a pending run for targetURL.
func NewAudit(targetURL string) *Audit {
	return &Audit{
		TargetURL: targetURL,
		StartedAt: time.Now(),
		State:     StatePending,
	}
}

// Finish records the terminal outcome. Only the first call has an effect.
func (a *Audit) Finish(o Outcome) bool {
	if a.Outcome != nil {
		return false
	}
	a.Outcome = &o
	if o.Succeeded() {
		a.State = StateDone
	} else {
		a.State = StateFailed
	}
	a.Screenshot = nil
	a.Annotated = nil
	return true
}
