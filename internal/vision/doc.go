// Package vision asks a vision-capable model to critique a screenshot.
//
// The model is prompted for a JSON object holding an executive summary and
// an ordered list of annotations in the 0-1000 normalized coordinate system.
// ParseResult turns that output into a model.AnalysisResult; GeminiAnalyzer
// is the production Analyzer backed by the Gemini API.
package vision
