package vision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/uxaudit/internal/model"
)

// ErrNotAnObject is returned when the model output is not a JSON object.
var ErrNotAnObject = errors.New("model output is not a JSON object")

type wireResult struct {
	ExecutiveSummary *string           `json:"executive_summary"`
	Annotations      []json.RawMessage `json:"annotations"`
}

// wireAnnotation keeps geometry raw so one malformed array only drops the
// geometry of its own annotation.
type wireAnnotation struct {
	ID             json.RawMessage `json:"id"`
	Text           string          `json:"text"`
	Description    string          `json:"description"`
	Recommendation string          `json:"recommendation"`
	LabelPos       json.RawMessage `json:"label_pos"`
	TargetPos      json.RawMessage `json:"target_pos"`
}

// ParseResult converts raw model output into an AnalysisResult.
//
// Output wrapped in a markdown code fence is accepted. A missing or blank
// summary becomes model.DefaultSummary. Annotations keep their order; an
// annotation whose label_pos is not four numbers or whose target_pos is not
// two numbers keeps its text with nil geometry. Finding ids are unique:
// a missing, invalid or repeated id is replaced by the smallest unused
// positive id. Output that is not a JSON
// object returns a KindMalformedOutput error.
func ParseResult(raw []byte) (*model.AnalysisResult, error) {
	body := cleanJSON(raw)
	if len(body) == 0 || body[0] != '{' {
		return nil, &Error{Kind: KindMalformedOutput, Err: ErrNotAnObject}
	}

	var wire wireResult
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &Error{Kind: KindMalformedOutput, Err: fmt.Errorf("failed to decode model output: %w", err)}
	}

	result := &model.AnalysisResult{
		Summary:  model.DefaultSummary,
		Findings: make([]model.Finding, 0, len(wire.Annotations)),
		Status:   model.AnalysisOK,
	}
	if wire.ExecutiveSummary != nil && strings.TrimSpace(*wire.ExecutiveSummary) != "" {
		result.Summary = strings.TrimSpace(*wire.ExecutiveSummary)
	}

	// Explicit ids are claimed first, in order; duplicates and missing ids
	// then take the smallest unused positive id.
	used := make(map[int]bool, len(wire.Annotations))
	for _, rawAnnotation := range wire.Annotations {
		var a wireAnnotation
		if err := json.Unmarshal(rawAnnotation, &a); err != nil {
			// Not an object; nothing to salvage but the slot.
			result.Findings = append(result.Findings, model.Finding{})
			continue
		}
		f := toFinding(a)
		if id, ok := parseID(a.ID); ok && !used[id] {
			f.ID = id
			used[id] = true
		}
		result.Findings = append(result.Findings, f)
	}

	next := 1
	for i := range result.Findings {
		if result.Findings[i].ID != 0 {
			continue
		}
		for used[next] {
			next++
		}
		result.Findings[i].ID = next
		used[next] = true
	}
	return result, nil
}

func toFinding(a wireAnnotation) model.Finding {
	f := model.Finding{
		Headline:       strings.TrimSpace(a.Text),
		Description:    strings.TrimSpace(a.Description),
		Recommendation: strings.TrimSpace(a.Recommendation),
	}
	if c, ok := coordinates(a.LabelPos, 4); ok {
		box := model.NewLabelBox(c[0], c[1], c[2], c[3])
		f.LabelBox = &box
	}
	if c, ok := coordinates(a.TargetPos, 2); ok {
		f.TargetPoint = &model.Point{Y: c[0], X: c[1]}
	}
	return f
}

// parseID accepts a positive integer given as a number or a numeric string.
func parseID(raw json.RawMessage) (int, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 1 && v <= math.MaxInt32 && v == math.Trunc(v) {
		return int(v), true
	}
	return 0, false
}

// coordinates decodes a JSON array of exactly n finite numbers.
func coordinates(raw json.RawMessage, n int) ([]float64, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil || len(values) != n {
		return nil, false
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return values, true
}

// cleanJSON strips a surrounding markdown code fence from model output.
func cleanJSON(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return s
	}

	if bytes.HasPrefix(s, []byte("```")) {
		// Opening fence line, with or without a language tag.
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = s[3:]
		}
		s = bytes.TrimSpace(s)
		if bytes.HasSuffix(s, []byte("```")) {
			s = s[:len(s)-3]
		}
		s = bytes.TrimSpace(s)
	}
	return s
}
