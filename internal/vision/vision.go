package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/uxaudit/internal/model"
)

// Analyzer critiques a screenshot.
type Analyzer interface {
	// Analyze sends img to the model and returns the parsed critique.
	// Failures are returned as *Error.
	Analyze(ctx context.Context, img *model.RasterImage) (*model.AnalysisResult, error)
}

// Kind classifies an analysis failure.
type Kind string

const (
	// KindRequestFailed means the model could not be called or refused.
	KindRequestFailed Kind = "request-failed"

	// KindMalformedOutput means the model answered with unparseable output.
	KindMalformedOutput Kind = "malformed-output"
)

// Error is a typed analysis failure.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("analysis failed (%s): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a vision *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == kind
}

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned an empty response")
