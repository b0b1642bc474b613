package annotate

import "errors"

var (
	// ErrIncompleteFinding is returned for a finding without a label box or target point.
	ErrIncompleteFinding = errors.New("finding has no label box or target point")

	// ErrInvalidCoordinates is returned for NaN or infinite coordinates.
	ErrInvalidCoordinates = errors.New("finding has non-finite coordinates")

	// ErrDrawFailed wraps a failure inside the drawing library for one finding.
	ErrDrawFailed = errors.New("failed to draw finding")

	// ErrBaseImage is returned when the base image cannot be decoded.
	ErrBaseImage = errors.New("failed to decode base image")
)
