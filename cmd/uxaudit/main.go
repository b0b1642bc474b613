// Package main provides the entry point for the uxaudit CLI.
//
// uxaudit captures a full-page screenshot of a web page, asks a vision
// model for conversion and usability problems, draws the findings on the
// screenshot and writes a report.
//
// Usage:
//
//	uxaudit serve
//	uxaudit audit https://example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
