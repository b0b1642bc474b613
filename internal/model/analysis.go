package model

// DefaultSummary is used when the vision model returned no executive summary
// or its output could not be used at all.
const DefaultSummary = "No summary provided."

// AnalysisStatus tells a consumer why an AnalysisResult looks the way it does.
// It separates "the model found nothing" from "the model output was unusable".
type AnalysisStatus string

const (
	// AnalysisOK means the model answered and its output was parsed.
	AnalysisOK AnalysisStatus = "ok"

	// AnalysisRequestFailed means the call to the vision model failed.
	AnalysisRequestFailed AnalysisStatus = "request_failed"

	// AnalysisParseFailed means the model answered with malformed structured output.
	AnalysisParseFailed AnalysisStatus = "parse_failed"
)

// AnalysisResult is the structured critique of one screenshot.
type AnalysisResult struct {
	// Summary is a short narrative of the page's main problems.
	Summary string `json:"summary"`

	// Findings is in presentation order and may be empty.
	Findings []Finding `json:"findings"`

	// Status records whether the result came from the model or is a fallback.
	Status AnalysisStatus `json:"status"`

	// Reason holds the soft-failure reason when Status is not AnalysisOK.
	Reason string `json:"reason,omitempty"`
}

// NewEmptyAnalysis returns the fallback result used when the analysis stage
// degrades. It has the default summary and no findings.
func NewEmptyAnalysis(status AnalysisStatus, reason string) *AnalysisResult {
	return &AnalysisResult{
		Summary:  DefaultSummary,
		Findings: []Finding{},
		Status:   status,
		Reason:   reason,
	}
}

// Degraded reports whether the result is a fallback rather than model output.
func (a *AnalysisResult) Degraded() bool {
	return a == nil || a.Status != AnalysisOK
}

// PlaceableCount returns how many findings carry drawable geometry.
func (a *AnalysisResult) PlaceableCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, f := range a.Findings {
		if f.Placeable() {
			n++
		}
	}
	return n
}
