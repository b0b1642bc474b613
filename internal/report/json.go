package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/uxaudit/internal/model"
)

// JSONGenerator outputs the audit as JSON for tool integration.
type JSONGenerator struct {
	opts options
}

// NewJSONGenerator creates a JSONGenerator. WithPrettyPrint enables
// indented output.
func NewJSONGenerator(opts ...Option) *JSONGenerator {
	return &JSONGenerator{opts: newOptions(opts)}
}

// ContentType implements Generator.
func (g *JSONGenerator) ContentType() string { return "application/json" }

// Extension implements Generator.
func (g *JSONGenerator) Extension() string { return "json" }

// JSONReport is the document written by JSONGenerator.
type JSONReport struct {
	TargetURL   string                `json:"target_url"`
	PageTitle   string                `json:"page_title,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
	Analysis    *model.AnalysisResult `json:"analysis"`
	Image       JSONImage             `json:"image"`
}

// JSONImage is the annotated screenshot. Data is base64 encoded by
// encoding/json.
type JSONImage struct {
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Data     []byte `json:"data"`
}

// Generate implements Generator.
func (g *JSONGenerator) Generate(w io.Writer, doc *Document) error {
	if err := g.opts.checkImage(doc.Image); err != nil {
		return err
	}

	out := JSONReport{
		TargetURL:   doc.TargetURL,
		PageTitle:   doc.PageTitle,
		GeneratedAt: doc.GeneratedAt,
		Analysis:    doc.analysis(),
		Image: JSONImage{
			MIMEType: doc.Image.MIMEType(),
			Width:    doc.Image.Width(),
			Height:   doc.Image.Height(),
			Data:     doc.Image.Bytes(),
		},
	}

	enc := json.NewEncoder(w)
	if g.opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
