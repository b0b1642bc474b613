// Package report assembles audit results into downloadable documents.
//
// Generators lay out a Document, which pairs the narrative analysis with
// the annotated screenshot:
//   - PDFGenerator: the printable audit report
//   - MarkdownGenerator: the same content with the image inlined as a data URI
//   - JSONGenerator: machine-readable output for tool integration
//
// SimpleWriter prints a short plain-text summary of a finished audit for
// terminal display.
package report
