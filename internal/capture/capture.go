package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/uxaudit/internal/model"
)

// Capturer takes a screenshot of a URL.
type Capturer interface {
	// Capture returns a full-page screenshot of targetURL.
	// Failures are returned as *Error.
	Capture(ctx context.Context, targetURL string) (*Result, error)
}

// Result is a captured page.
type Result struct {
	// Image is the full-page screenshot.
	Image *model.RasterImage

	// Title is the page title when the backend reports one.
	Title string
}

// Kind classifies a capture failure.
type Kind string

const (
	// KindNetwork means the capture service or page could not be reached.
	KindNetwork Kind = "network"

	// KindNoResult means the service answered without a usable screenshot.
	KindNoResult Kind = "no-result"

	// KindDownloadFailed means the screenshot asset could not be fetched.
	KindDownloadFailed Kind = "download-failed"
)

// Error is a typed capture failure.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("capture failed (%s): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a capture *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

var (
	// ErrNoScreenshot is returned when the service reports no screenshot.
	ErrNoScreenshot = errors.New("no screenshot in capture result")

	// ErrBodyTooLarge is returned when the screenshot exceeds the size limit.
	ErrBodyTooLarge = errors.New("screenshot exceeds size limit")
)
