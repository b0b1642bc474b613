package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "uxaudit"

	// DefaultListenAddress is where `uxaudit serve` listens.
	DefaultListenAddress = ":8000"

	// CaptureFirecrawl and CaptureChrome name the capture backends.
	CaptureFirecrawl = "firecrawl"
	CaptureChrome    = "chrome"

	// DefaultFirecrawlURL is the hosted Firecrawl API.
	DefaultFirecrawlURL = "https://api.firecrawl.dev"

	// DefaultModel is the Gemini model used for analysis.
	DefaultModel = "gemini-2.0-flash"

	// Per-stage timeouts. Capture and analysis wait on remote services and
	// get the most room.
	DefaultCaptureTimeout  = 90 * time.Second
	DefaultAnalyzeTimeout  = 120 * time.Second
	DefaultRenderTimeout   = 30 * time.Second
	DefaultAssembleTimeout = 60 * time.Second

	// DefaultMaxScreenshotBytes caps a downloaded screenshot.
	DefaultMaxScreenshotBytes = 32 * 1024 * 1024

	// DefaultMaxReportImageBytes caps the annotated image embedded in a report.
	DefaultMaxReportImageBytes = 20 * 1024 * 1024

	// DefaultReportFormat is the report document type.
	DefaultReportFormat = "pdf"

	// ArtifactFile and ArtifactRedis name the artifact store backends.
	ArtifactFile  = "file"
	ArtifactRedis = "redis"

	// DefaultArtifactTTL is how long a report stays downloadable.
	DefaultArtifactTTL = time.Hour

	// DefaultRedisAddress is the local redis server.
	DefaultRedisAddress = "127.0.0.1:6379"

	// DefaultFontSize is the headline size for a 1280px wide screenshot.
	DefaultFontSize = 20.0

	// DefaultConcurrency is the number of audits `uxaudit audit` runs at once.
	// Every audit holds a full-page screenshot in memory.
	DefaultConcurrency = 2
)

// Config holds all configuration options for uxaudit. It is populated from
// defaults, the config file, the environment and CLI flags, in that order.
type Config struct {
	// ListenAddress is the host:port of the HTTP server.
	ListenAddress string

	// CaptureBackend is CaptureFirecrawl or CaptureChrome.
	CaptureBackend string

	// FirecrawlURL is the base URL of the Firecrawl API.
	FirecrawlURL string

	// FirecrawlAPIKey is read from FIRECRAWL_API_KEY.
	FirecrawlAPIKey string

	// ChromePath overrides the Chrome executable of the chrome backend.
	ChromePath string

	// GoogleAPIKey is read from GOOGLE_API_KEY.
	GoogleAPIKey string

	// Model is the Gemini model name.
	Model string

	// Audience describes who the audit is written for. It is placed in the
	// analysis prompt. Empty means the prompt's default audience.
	Audience string

	// CaptureTimeout, AnalyzeTimeout, RenderTimeout and AssembleTimeout bound
	// each pipeline stage. Zero means no limit.
	CaptureTimeout  time.Duration
	AnalyzeTimeout  time.Duration
	RenderTimeout   time.Duration
	AssembleTimeout time.Duration

	// MaxScreenshotBytes caps a downloaded screenshot.
	MaxScreenshotBytes int64

	// MaxReportImageBytes caps the image embedded in a report.
	MaxReportImageBytes int64

	// ReportFormat is pdf, markdown or json.
	ReportFormat string

	// ArtifactBackend is ArtifactFile or ArtifactRedis.
	ArtifactBackend string

	// ArtifactDir is where the file backend keeps reports.
	ArtifactDir string

	// ArtifactTTL is how long a report can be downloaded.
	ArtifactTTL time.Duration

	// DeleteOnDownload removes a report after its first download.
	DeleteOnDownload bool

	// RedisAddress, RedisPassword and RedisDB select the redis backend server.
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// FontSize is the annotation headline size in points.
	FontSize float64

	// Concurrency is the number of audits run at once by `uxaudit audit`.
	Concurrency int

	// OutputDir is where `uxaudit audit` writes reports.
	OutputDir string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit config file. Empty means search the
	// default locations.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddress:       DefaultListenAddress,
		CaptureBackend:      CaptureFirecrawl,
		FirecrawlURL:        DefaultFirecrawlURL,
		Model:               DefaultModel,
		CaptureTimeout:      DefaultCaptureTimeout,
		AnalyzeTimeout:      DefaultAnalyzeTimeout,
		RenderTimeout:       DefaultRenderTimeout,
		AssembleTimeout:     DefaultAssembleTimeout,
		MaxScreenshotBytes:  DefaultMaxScreenshotBytes,
		MaxReportImageBytes: DefaultMaxReportImageBytes,
		ReportFormat:        DefaultReportFormat,
		ArtifactBackend:     ArtifactFile,
		ArtifactDir:         filepath.Join(XDGCacheDir(), "reports"),
		ArtifactTTL:         DefaultArtifactTTL,
		RedisAddress:        DefaultRedisAddress,
		FontSize:            DefaultFontSize,
		Concurrency:         DefaultConcurrency,
		OutputDir:           ".",
	}
}

// XDGConfigDir returns the XDG config directory for uxaudit.
// On Linux: ~/.config/uxaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for uxaudit.
// On Linux: ~/.cache/uxaudit
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It does not look at API keys; see CheckCredentials.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return ErrEmptyListenAddress
	}

	switch c.CaptureBackend {
	case CaptureFirecrawl, CaptureChrome:
	default:
		return ErrUnknownCaptureBackend
	}

	switch c.ArtifactBackend {
	case ArtifactFile, ArtifactRedis:
	default:
		return ErrUnknownArtifactBackend
	}

	switch c.ReportFormat {
	case "pdf", "markdown", "json":
	default:
		return ErrUnknownReportFormat
	}

	for _, d := range []time.Duration{c.CaptureTimeout, c.AnalyzeTimeout, c.RenderTimeout, c.AssembleTimeout} {
		if d < 0 {
			return ErrInvalidTimeout
		}
	}

	if c.MaxScreenshotBytes <= 0 || c.MaxReportImageBytes <= 0 {
		return ErrInvalidMaxBytes
	}
	if c.ArtifactTTL <= 0 {
		return ErrInvalidTTL
	}
	if c.FontSize <= 0 {
		return ErrInvalidFontSize
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

// CheckCredentials reports the first API key the selected backends need
// but do not have.
func (c *Config) CheckCredentials() error {
	if c.CaptureBackend == CaptureFirecrawl && c.FirecrawlAPIKey == "" {
		return ErrMissingFirecrawlKey
	}
	if c.GoogleAPIKey == "" {
		return ErrMissingGoogleKey
	}
	return nil
}
