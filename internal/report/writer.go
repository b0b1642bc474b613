package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/uxaudit/internal/model"
)

// DefaultMaxImageBytes is the largest screenshot a document will embed.
const DefaultMaxImageBytes int64 = 20 * 1024 * 1024

var (
	// ErrImageTooLarge is returned when the screenshot exceeds the embed limit.
	ErrImageTooLarge = errors.New("image too large to embed in report")

	// ErrImageUndecodable is returned when the screenshot cannot be decoded.
	ErrImageUndecodable = errors.New("image cannot be decoded")

	// ErrMissingImage is returned when a document has no screenshot.
	ErrMissingImage = errors.New("document has no image")

	// ErrUnknownFormat is returned by NewGenerator for unsupported formats.
	ErrUnknownFormat = errors.New("unknown report format")
)

// Format names a report encoding.
type Format string

const (
	// FormatPDF is the printable report.
	FormatPDF Format = "pdf"

	// FormatMarkdown is the Markdown report.
	FormatMarkdown Format = "markdown"

	// FormatJSON is the machine-readable report.
	FormatJSON Format = "json"
)

// Document is the input of every generator.
type Document struct {
	// TargetURL is the audited page.
	TargetURL string

	// PageTitle is the page title reported by the capture backend, if any.
	PageTitle string

	// GeneratedAt is the report timestamp.
	GeneratedAt time.Time

	// Analysis is the model critique. Nil is treated as an empty result.
	Analysis *model.AnalysisResult

	// Image is the annotated screenshot.
	Image *model.RasterImage
}

// analysis returns the document's analysis, never nil.
func (d *Document) analysis() *model.AnalysisResult {
	if d.Analysis == nil {
		return model.NewEmptyAnalysis(model.AnalysisRequestFailed, "no analysis available")
	}
	return d.Analysis
}

// Generator writes a Document in one format.
type Generator interface {
	// Generate writes doc to w.
	Generate(w io.Writer, doc *Document) error

	// ContentType is the media type of the generated document.
	ContentType() string

	// Extension is the file extension of the generated document, without a dot.
	Extension() string
}

// Option configures a generator.
type Option func(*options)

type options struct {
	maxImageBytes int64
	pretty        bool
}

// WithMaxImageBytes sets the embed limit. Non-positive values are ignored.
func WithMaxImageBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxImageBytes = n
		}
	}
}

// WithPrettyPrint enables indented JSON output.
func WithPrettyPrint() Option {
	return func(o *options) {
		o.pretty = true
	}
}

func newOptions(opts []Option) options {
	o := options{maxImageBytes: DefaultMaxImageBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// checkImage enforces the embed limit shared by all generators.
func (o options) checkImage(img *model.RasterImage) error {
	if img == nil || img.Size() == 0 {
		return ErrMissingImage
	}
	if int64(img.Size()) > o.maxImageBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, img.Size(), o.maxImageBytes)
	}
	return nil
}

// NewGenerator returns the generator for format.
func NewGenerator(format Format, opts ...Option) (Generator, error) {
	switch format {
	case FormatPDF, "":
		return NewPDFGenerator(opts...), nil
	case FormatMarkdown:
		return NewMarkdownGenerator(opts...), nil
	case FormatJSON:
		return NewJSONGenerator(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
