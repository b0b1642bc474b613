package report

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
)

// MarkdownGenerator outputs the audit as a single Markdown file with the
// annotated screenshot inlined as a base64 data URI.
type MarkdownGenerator struct {
	opts options
}

// NewMarkdownGenerator creates a MarkdownGenerator.
func NewMarkdownGenerator(opts ...Option) *MarkdownGenerator {
	return &MarkdownGenerator{opts: newOptions(opts)}
}

// ContentType implements Generator.
func (g *MarkdownGenerator) ContentType() string { return "text/markdown; charset=utf-8" }

// Extension implements Generator.
func (g *MarkdownGenerator) Extension() string { return "md" }

// Generate implements Generator.
func (g *MarkdownGenerator) Generate(w io.Writer, doc *Document) error {
	if err := g.opts.checkImage(doc.Image); err != nil {
		return err
	}

	md := markdown.NewMarkdown(w)
	g.writeHeader(md, doc)
	g.writeSummary(md, doc)
	g.writeFindings(md, doc)
	g.writeImage(md, doc)
	g.writeFooter(md)

	return md.Build()
}

func (g *MarkdownGenerator) writeHeader(md *markdown.Markdown, doc *Document) {
	md.H1("Conversion Audit Report")
	md.PlainText("")

	rows := [][]string{{"Analysis for", escapeCell(doc.TargetURL)}}
	if doc.PageTitle != "" {
		rows = append(rows, []string{"Page title", escapeCell(doc.PageTitle)})
	}
	if !doc.GeneratedAt.IsZero() {
		rows = append(rows, []string{"Generated", doc.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (g *MarkdownGenerator) writeSummary(md *markdown.Markdown, doc *Document) {
	analysis := doc.analysis()
	if analysis.Degraded() {
		md.Warningf("%s", degradedNote(analysis))
		md.PlainText("")
	}

	md.H2("Executive Summary")
	md.PlainText("")
	md.PlainText(analysis.Summary)
	md.PlainText("")
}

func (g *MarkdownGenerator) writeFindings(md *markdown.Markdown, doc *Document) {
	analysis := doc.analysis()

	md.H2("Key Findings Overview")
	md.PlainText("")
	if len(analysis.Findings) == 0 {
		md.PlainText("No findings were reported.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(analysis.Findings))
	for i, f := range analysis.Findings {
		rows[i] = []string{
			"#" + strconv.Itoa(f.ID),
			escapeCell(headline(f)),
			escapeCell(orDash(f.Description)),
			escapeCell(orDash(f.Recommendation)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Finding", "Problem", "Fix"},
		Rows:   rows,
	})
	md.PlainText("")

	if analysis.PlaceableCount() < len(analysis.Findings) {
		md.Note("Some findings had no usable position and are not marked on the screenshot.")
		md.PlainText("")
	}
}

func (g *MarkdownGenerator) writeImage(md *markdown.Markdown, doc *Document) {
	md.H2("Visual Annotations")
	md.PlainText("")
	md.PlainTextf("![Annotated screenshot of %s](data:%s;base64,%s)",
		altText(doc.TargetURL),
		doc.Image.MIMEType(),
		base64.StdEncoding.EncodeToString(doc.Image.Bytes()),
	)
	md.PlainText("")
}

func (g *MarkdownGenerator) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by uxaudit*")
}

// escapeCell keeps table cells on one line.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// altText keeps image alt text from closing the link label early.
func altText(s string) string {
	s = strings.NewReplacer("[", "", "]", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
