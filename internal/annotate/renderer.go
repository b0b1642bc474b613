package annotate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/uxaudit/internal/geometry"
	"github.com/nao1215/uxaudit/internal/model"
)

// DefaultFontSize is the headline size in points for a 1280px wide screenshot.
// Wider images scale the size up proportionally.
const DefaultFontSize = 20.0

// referenceWidth is the screenshot width DefaultFontSize was tuned for.
const referenceWidth = 1280.0

// headlineFont is parsed once; faces are created per render because a
// truetype face keeps a glyph cache that is not safe for concurrent use.
var headlineFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gobold.TTF)
})

// Stats describes what a render did.
type Stats struct {
	// Drawn is the number of findings rendered as overlays.
	Drawn int

	// Skipped is the number of findings that could not be drawn.
	Skipped int
}

// Renderer draws findings onto screenshots.
type Renderer struct {
	style    Style
	fontSize float64
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle overrides the overlay style.
func WithStyle(s Style) Option {
	return func(r *Renderer) {
		r.style = s
	}
}

// WithFontSize sets the headline size in points. Non-positive values are ignored.
func WithFontSize(size float64) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.fontSize = size
		}
	}
}

// WithLogger sets the logger used to report skipped findings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// New creates a Renderer with the default style.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		style:    DefaultStyle(),
		fontSize: DefaultFontSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Render returns base with the findings of analysis drawn on it.
//
// When analysis is nil, degraded, or has no findings, base itself is
// returned. Otherwise a new PNG-encoded image of the same dimensions is
// returned and base is left untouched.
func (r *Renderer) Render(ctx context.Context, base *model.RasterImage, analysis *model.AnalysisResult) (*model.RasterImage, Stats, error) {
	var stats Stats
	if analysis == nil || analysis.Degraded() || len(analysis.Findings) == 0 {
		return base, stats, nil
	}

	src, err := base.Decode()
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", ErrBaseImage, err)
	}

	// NewContextForImage copies src into a fresh RGBA buffer.
	dc := gg.NewContextForImage(src)
	mapper := geometry.NewMapper(dc.Width(), dc.Height())

	face, err := r.headlineFace(dc.Width())
	if err != nil {
		r.logger.Warn("falling back to built-in font", "error", err)
	} else {
		dc.SetFontFace(face)
	}

	// A Caser keeps state and must not be shared across goroutines.
	upper := cases.Upper(language.Und)

	for _, f := range analysis.Findings {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if err := r.drawFinding(dc, mapper, upper, f); err != nil {
			stats.Skipped++
			r.logger.Warn("skipping finding", "id", f.ID, "error", err)
			continue
		}
		stats.Drawn++
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, stats, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	out, err := model.NewRasterImage(buf.Bytes())
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// headlineFace builds the bold Go font at a size scaled to the image width.
func (r *Renderer) headlineFace(imageWidth int) (font.Face, error) {
	f, err := headlineFont()
	if err != nil {
		return nil, err
	}
	size := r.fontSize * math.Max(1, float64(imageWidth)/referenceWidth)
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// drawFinding draws one finding. A panic inside the drawing library is
// converted into an error so the remaining findings still render.
func (r *Renderer) drawFinding(dc *gg.Context, m geometry.Mapper, upper cases.Caser, f model.Finding) (err error) {
	if !f.Placeable() {
		return fmt.Errorf("finding %d: %w", f.ID, ErrIncompleteFinding)
	}
	if !finite(f.LabelBox.MinY, f.LabelBox.MinX, f.LabelBox.MaxY, f.LabelBox.MaxX, f.TargetPoint.Y, f.TargetPoint.X) {
		return fmt.Errorf("finding %d: %w", f.ID, ErrInvalidCoordinates)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("finding %d: %w: %v", f.ID, ErrDrawFailed, rec)
		}
	}()

	box := f.LabelBox.Clamp()
	anchor := m.TopLeft(box)
	center := m.Center(box)
	target := m.Point(f.TargetPoint.Clamp())

	r.drawPointer(dc, center, target)
	r.drawMarker(dc, target)
	r.drawLabel(dc, anchor, upper.String(strings.TrimSpace(f.Headline)))

	return nil
}

// drawPointer draws the wide dark line and then the narrow bright line.
func (r *Renderer) drawPointer(dc *gg.Context, from, to geometry.Pixel) {
	dc.SetLineCap(gg.LineCapRound)

	dc.SetColor(r.style.Outline)
	dc.SetLineWidth(r.style.OutlineWidth)
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	dc.Stroke()

	dc.SetColor(r.style.Fill)
	dc.SetLineWidth(r.style.FillWidth)
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	dc.Stroke()
}

// drawMarker draws the dark ring and then the bright disc at the target.
func (r *Renderer) drawMarker(dc *gg.Context, at geometry.Pixel) {
	dc.SetColor(r.style.Outline)
	dc.DrawCircle(at.X, at.Y, r.style.MarkerRadius+r.style.MarkerRing)
	dc.Fill()

	dc.SetColor(r.style.Fill)
	dc.DrawCircle(at.X, at.Y, r.style.MarkerRadius)
	dc.Fill()
}

// drawLabel draws the background rectangle first and the headline on top,
// with the text's top-left corner at the anchor.
func (r *Renderer) drawLabel(dc *gg.Context, anchor geometry.Pixel, text string) {
	if text == "" {
		return
	}
	w, h := dc.MeasureString(text)
	pad := r.style.LabelPadding

	dc.DrawRectangle(anchor.X-pad, anchor.Y-pad, w+2*pad, h+2*pad)
	dc.SetColor(r.style.Fill)
	dc.FillPreserve()
	dc.SetColor(r.style.Outline)
	dc.SetLineWidth(r.style.LabelBorder)
	dc.Stroke()

	dc.SetColor(r.style.Text)
	dc.DrawStringAnchored(text, anchor.X, anchor.Y, 0, 1)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
