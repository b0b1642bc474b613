package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.CheckCredentials.
var (
	// ErrEmptyListenAddress is returned when the server has no address to bind.
	ErrEmptyListenAddress = errors.New("invalid listen address: must not be empty")

	// ErrInvalidTimeout is returned when a stage timeout is negative.
	// Zero disables the timeout of that stage.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxBytes is returned when an image size limit is not positive.
	ErrInvalidMaxBytes = errors.New("invalid size limit: must be positive")

	// ErrInvalidTTL is returned when the artifact lifetime is not positive.
	ErrInvalidTTL = errors.New("invalid artifact ttl: must be positive")

	// ErrInvalidFontSize is returned when the headline font size is not positive.
	ErrInvalidFontSize = errors.New("invalid font size: must be positive")

	// ErrUnknownCaptureBackend is returned for a capture backend other than
	// firecrawl or chrome.
	ErrUnknownCaptureBackend = errors.New("unknown capture backend: use firecrawl or chrome")

	// ErrUnknownArtifactBackend is returned for an artifact backend other than
	// file or redis.
	ErrUnknownArtifactBackend = errors.New("unknown artifact backend: use file or redis")

	// ErrUnknownReportFormat is returned for a report format other than pdf,
	// markdown or json.
	ErrUnknownReportFormat = errors.New("unknown report format: use pdf, markdown or json")

	// ErrMissingFirecrawlKey is returned when the firecrawl backend is selected
	// without FIRECRAWL_API_KEY.
	ErrMissingFirecrawlKey = errors.New("FIRECRAWL_API_KEY is not set")

	// ErrMissingGoogleKey is returned when GOOGLE_API_KEY is not set.
	ErrMissingGoogleKey = errors.New("GOOGLE_API_KEY is not set")
)
