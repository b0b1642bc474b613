package stream

import (
	"time"

	"github.com/nao1215/uxaudit/internal/model"
)

// EventType discriminates outbound events.
type EventType string

const (
	// EventProgress is a status line.
	EventProgress EventType = "progress"

	// EventComplete is the successful terminal event.
	EventComplete EventType = "complete"

	// EventError is the failed terminal event.
	EventError EventType = "error"
)

// Event is one outbound message.
type Event struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message,omitempty"`
	ReportURL string    `json:"report_url,omitempty"`
	Time      time.Time `json:"-"`
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// ProgressEvent converts a pipeline progress event.
func ProgressEvent(ev model.ProgressEvent) Event {
	return Event{Type: EventProgress, Message: ev.Message, Time: ev.Time}
}

// ErrorEvent builds a terminal error event.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message, Time: time.Now()}
}

// DownloadPath is the default report URL for an artifact.
func DownloadPath(ref model.ArtifactRef) string {
	return "api/download/" + ref.String()
}

// terminalEvent derives the single terminal event of an outcome.
func terminalEvent(o model.Outcome, reportURL func(model.ArtifactRef) string) Event {
	if o.Succeeded() {
		return Event{
			Type:      EventComplete,
			ReportURL: reportURL(o.Artifact),
			Time:      time.Now(),
		}
	}
	return ErrorEvent(o.Reason())
}
