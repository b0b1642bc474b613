package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/uxaudit/internal/model"
)

// SimpleWriter prints a plain-text summary of a finished audit for
// terminal display.
type SimpleWriter struct {
	output io.Writer

	// verbose adds problem and fix text under each finding.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the audit summary. location is where the report was saved
// and may be empty.
func (w *SimpleWriter) Write(audit *model.Audit, location string) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, audit, location)
	w.writeFindings(&sb, audit)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, audit *model.Audit, location string) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "URL:       %s\n", audit.TargetURL)
	if audit.PageTitle != "" {
		fmt.Fprintf(sb, "Title:     %s\n", audit.PageTitle)
	}

	switch {
	case audit.Outcome == nil:
		fmt.Fprintf(sb, "Status:    %s\n", audit.State)
	case audit.Outcome.Succeeded():
		sb.WriteString("Status:    Complete\n")
	default:
		fmt.Fprintf(sb, "Status:    ERROR - %s\n", audit.Outcome.Reason())
	}
	if audit.Analysis != nil && audit.Analysis.Degraded() {
		fmt.Fprintf(sb, "Analysis:  unavailable (%s)\n", audit.Analysis.Status)
	}
	if audit.Outcome != nil && audit.Outcome.Succeeded() {
		fmt.Fprintf(sb, "Overlays:  %d\n", audit.Overlays)
	}
	if location != "" {
		fmt.Fprintf(sb, "Report:    %s\n", location)
	}
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, audit *model.Audit) {
	if audit.Analysis == nil || len(audit.Analysis.Findings) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, f := range audit.Analysis.Findings {
		fmt.Fprintf(sb, "  #%d %s\n", f.ID, headline(f))
		if !w.verbose {
			continue
		}
		if f.Description != "" {
			fmt.Fprintf(sb, "     Problem: %s\n", f.Description)
		}
		if f.Recommendation != "" {
			fmt.Fprintf(sb, "     Fix:     %s\n", f.Recommendation)
		}
	}
}
