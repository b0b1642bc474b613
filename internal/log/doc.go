// Package log builds slog loggers that never print API credentials.
//
// SecureHandler wraps any slog.Handler. Attributes with a sensitive key
// (authorization, api_key, cookie, ...) are replaced by MaskValue, and API
// keys embedded in messages, strings and errors are scrubbed in place:
// Google keys (AIza...), Firecrawl keys (fc-...) and bearer tokens. An
// error from an HTTP client that echoes its request URL therefore cannot
// leak the key in its query string.
//
//	logger := log.NewSecureLogger(os.Stderr, log.LevelFor(verbose, slog.LevelInfo))
//	slog.SetDefault(logger)
package log
