package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/nao1215/uxaudit/internal/model"
)

// Page geometry in millimetres on A4 portrait.
const (
	pageHeight   = 297.0
	marginLeft   = 10.0
	marginTop    = 10.0
	marginBottom = 10.0
	imageX       = 10.0
	imageY       = 30.0
	imageWidth   = 190.0
)

type rgb struct{ r, g, b int }

var (
	colorText    = rgb{0, 0, 0}
	colorFinding = rgb{200, 0, 0}
	colorFix     = rgb{0, 100, 0}
	colorNote    = rgb{120, 120, 120}
)

// PDFGenerator lays out the audit as an A4 PDF.
//
// The first page holds the narrative. The annotated screenshot follows at
// full text width; screenshots taller than one page are cut into
// consecutive page-height slices.
type PDFGenerator struct {
	opts options
}

// NewPDFGenerator creates a PDF generator.
func NewPDFGenerator(opts ...Option) *PDFGenerator {
	return &PDFGenerator{opts: newOptions(opts)}
}

// ContentType implements Generator.
func (g *PDFGenerator) ContentType() string { return "application/pdf" }

// Extension implements Generator.
func (g *PDFGenerator) Extension() string { return "pdf" }

// Generate implements Generator.
func (g *PDFGenerator) Generate(w io.Writer, doc *Document) error {
	if err := g.opts.checkImage(doc.Image); err != nil {
		return err
	}
	src, err := doc.Image.Decode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageUndecodable, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle(sanitize("Conversion Audit Report: "+doc.TargetURL), false)
	pdf.SetCreator("uxaudit", false)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
	}

	g.writeSummaryPage(pdf, doc)
	if err := g.writeImagePages(pdf, doc.Image, src); err != nil {
		return err
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func setColor(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func (g *PDFGenerator) writeSummaryPage(pdf *fpdf.Fpdf, doc *Document) {
	analysis := doc.analysis()

	pdf.AddPage()
	setColor(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Conversion Audit Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, sanitize("Analysis for: "+doc.TargetURL), "", "C", false)
	if doc.PageTitle != "" {
		pdf.MultiCell(0, 6, sanitize("Page title: "+doc.PageTitle), "", "C", false)
	}
	if !doc.GeneratedAt.IsZero() {
		pdf.MultiCell(0, 6, "Generated: "+doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), "", "C", false)
	}
	pdf.Ln(6)

	if analysis.Degraded() {
		setColor(pdf, colorNote)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, sanitize(degradedNote(analysis)), "", "L", false)
		setColor(pdf, colorText)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Executive Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, sanitize(analysis.Summary), "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Key Findings Overview:", "", 1, "L", false, 0, "")
	if len(analysis.Findings) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No findings were reported.", "", "L", false)
		return
	}

	for _, f := range analysis.Findings {
		pdf.SetFont("Helvetica", "B", 12)
		setColor(pdf, colorFinding)
		pdf.CellFormat(12, 7, "#"+strconv.Itoa(f.ID), "", 0, "L", false, 0, "")
		setColor(pdf, colorText)
		pdf.MultiCell(0, 7, sanitize(headline(f)), "", "L", false)

		if f.Description != "" {
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 6, sanitize("Problem: "+f.Description), "", "L", false)
		}
		if f.Recommendation != "" {
			pdf.SetFont("Helvetica", "I", 11)
			setColor(pdf, colorFix)
			pdf.MultiCell(0, 6, sanitize("Fix: "+f.Recommendation), "", "L", false)
			setColor(pdf, colorText)
		}
		pdf.Ln(4)
	}
}

// writeImagePages places the screenshot at full text width, one slice per
// page when it is taller than the space below the heading.
func (g *PDFGenerator) writeImagePages(pdf *fpdf.Fpdf, img *model.RasterImage, src image.Image) error {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return ErrImageUndecodable
	}

	mmPerPixel := imageWidth / float64(width)
	sliceRows := int((pageHeight - imageY - marginBottom) / mmPerPixel)
	if sliceRows < 1 {
		sliceRows = 1
	}

	if height <= sliceRows {
		g.imagePage(pdf, "Visual Annotations")
		imageType := "PNG"
		if img.Format() == "jpeg" {
			imageType = "JPG"
		}
		opts := fpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader("screenshot", opts, img.Reader())
		pdf.ImageOptions("screenshot", imageX, imageY, imageWidth, float64(height)*mmPerPixel, false, opts, 0, "")
		return pdf.Error()
	}

	for page, top := 0, 0; top < height; page, top = page+1, top+sliceRows {
		rows := min(sliceRows, height-top)
		data, err := encodeSlice(src, bounds.Min.Y+top, rows)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrImageUndecodable, err)
		}

		title := "Visual Annotations"
		if page > 0 {
			title = fmt.Sprintf("Visual Annotations (continued %d)", page+1)
		}
		g.imagePage(pdf, title)

		name := "screenshot-" + strconv.Itoa(page)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, imageX, imageY, imageWidth, float64(rows)*mmPerPixel, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (g *PDFGenerator) imagePage(pdf *fpdf.Fpdf, title string) {
	pdf.AddPage()
	setColor(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
}

// encodeSlice copies rows starting at top into a new PNG.
func encodeSlice(src image.Image, top, rows int) ([]byte, error) {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), rows))
	draw.Draw(dst, dst.Bounds(), src, image.Pt(b.Min.X, top), draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func headline(f model.Finding) string {
	if f.Headline == "" {
		return "Untitled finding"
	}
	return f.Headline
}

func degradedNote(a *model.AnalysisResult) string {
	note := "Note: the automated analysis was unavailable"
	switch a.Status {
	case model.AnalysisParseFailed:
		note = "Note: the vision model's answer could not be read"
	case model.AnalysisRequestFailed:
		note = "Note: the vision model could not be reached"
	}
	return note + ", so this report contains no findings. The screenshot is included without annotations."
}
