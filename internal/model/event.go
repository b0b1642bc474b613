package model

import "time"

// ProgressEvent is a human-readable status line emitted by a running audit.
type ProgressEvent struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// NewProgressEvent stamps message with the current time.
func NewProgressEvent(message string) ProgressEvent {
	return ProgressEvent{Time: time.Now(), Message: message}
}

// ArtifactRef is the opaque handle of a generated report.
type ArtifactRef string

// String implements fmt.Stringer.
func (r ArtifactRef) String() string { return string(r) }

// Outcome is the terminal state of an audit run: either an artifact
// reference or a failure reason, never both.
type Outcome struct {
	// Artifact is set on success.
	Artifact ArtifactRef `json:"artifact,omitempty"`

	// Err is set on failure.
	Err error `json:"-"`
}

// Success builds a successful Outcome.
func Success(ref ArtifactRef) Outcome {
	return Outcome{Artifact: ref}
}

// Failure builds a failed Outcome.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// Succeeded reports whether the run produced an artifact.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Artifact != ""
}

// Reason returns the failure reason, or an empty string on success.
func (o Outcome) Reason() string {
	if o.Err == nil {
		if o.Artifact == "" {
			return "audit finished without a report"
		}
		return ""
	}
	return o.Err.Error()
}
