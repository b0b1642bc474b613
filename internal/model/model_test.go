package model

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// TestNewLabelBox verifies that each axis is ordered min <= max.
func TestNewLabelBox(t *testing.T) {
	t.Parallel()

	t.Run("keeps ordered coordinates", func(t *testing.T) {
		t.Parallel()
		got := NewLabelBox(10, 20, 30, 40)
		want := LabelBox{MinY: 10, MinX: 20, MaxY: 30, MaxX: 40}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("NewLabelBox() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("swaps inverted axes", func(t *testing.T) {
		t.Parallel()
		got := NewLabelBox(300, 400, 100, 200)
		want := LabelBox{MinY: 100, MinX: 200, MaxY: 300, MaxX: 400}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("NewLabelBox() mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestClamp verifies clamping into the normalized range.
func TestClamp(t *testing.T) {
	t.Parallel()

	t.Run("point outside range is clamped", func(t *testing.T) {
		t.Parallel()
		p := Point{Y: 1500, X: -20}
		if p.InRange() {
			t.Error("expected point to be out of range")
		}
		got := p.Clamp()
		if got.Y != NormalizedScale || got.X != 0 {
			t.Errorf("expected (1000, 0), got (%v, %v)", got.Y, got.X)
		}
		if !got.InRange() {
			t.Error("expected clamped point to be in range")
		}
	})

	t.Run("box outside range is clamped", func(t *testing.T) {
		t.Parallel()
		got := LabelBox{MinY: -5, MinX: 10, MaxY: 2000, MaxX: 999}.Clamp()
		want := LabelBox{MinY: 0, MinX: 10, MaxY: 1000, MaxX: 999}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Clamp() mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestFindingPlaceable verifies that geometry is required for drawing.
func TestFindingPlaceable(t *testing.T) {
	t.Parallel()

	box := NewLabelBox(0, 0, 10, 10)
	point := Point{Y: 5, X: 5}

	tests := []struct {
		name    string
		finding Finding
		want    bool
	}{
		{name: "box and point", finding: Finding{LabelBox: &box, TargetPoint: &point}, want: true},
		{name: "missing box", finding: Finding{TargetPoint: &point}, want: false},
		{name: "missing point", finding: Finding{LabelBox: &box}, want: false},
		{name: "no geometry", finding: Finding{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.finding.Placeable(); got != tt.want {
				t.Errorf("Placeable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAnalysisResult verifies the fallback constructor and helpers.
func TestAnalysisResult(t *testing.T) {
	t.Parallel()

	t.Run("empty analysis uses the default summary", func(t *testing.T) {
		t.Parallel()
		a := NewEmptyAnalysis(AnalysisParseFailed, "bad json")
		if a.Summary != DefaultSummary {
			t.Errorf("expected default summary, got %q", a.Summary)
		}
		if len(a.Findings) != 0 {
			t.Errorf("expected no findings, got %d", len(a.Findings))
		}
		if !a.Degraded() {
			t.Error("expected fallback analysis to be degraded")
		}
	})

	t.Run("nil analysis is degraded", func(t *testing.T) {
		t.Parallel()
		var a *AnalysisResult
		if !a.Degraded() {
			t.Error("expected nil analysis to be degraded")
		}
		if a.PlaceableCount() != 0 {
			t.Error("expected zero placeable findings")
		}
	})

	t.Run("counts placeable findings", func(t *testing.T) {
		t.Parallel()
		box := NewLabelBox(0, 0, 10, 10)
		point := Point{Y: 5, X: 5}
		a := &AnalysisResult{
			Status: AnalysisOK,
			Findings: []Finding{
				{ID: 1, LabelBox: &box, TargetPoint: &point},
				{ID: 2},
				{ID: 3, LabelBox: &box, TargetPoint: &point},
			},
		}
		if got := a.PlaceableCount(); got != 2 {
			t.Errorf("expected 2 placeable findings, got %d", got)
		}
	})
}

// TestNewRasterImage verifies header decoding.
func TestNewRasterImage(t *testing.T) {
	t.Parallel()

	t.Run("reads dimensions and format", func(t *testing.T) {
		t.Parallel()
		img, err := NewRasterImage(encodePNG(t, 40, 25))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if img.Width() != 40 || img.Height() != 25 {
			t.Errorf("expected 40x25, got %dx%d", img.Width(), img.Height())
		}
		if img.Format() != "png" || img.MIMEType() != "image/png" {
			t.Errorf("unexpected format %q / %q", img.Format(), img.MIMEType())
		}
	})

	t.Run("empty buffer returns ErrEmptyImage", func(t *testing.T) {
		t.Parallel()
		_, err := NewRasterImage(nil)
		if !errors.Is(err, ErrEmptyImage) {
			t.Errorf("expected ErrEmptyImage, got %v", err)
		}
	})

	t.Run("garbage returns an error", func(t *testing.T) {
		t.Parallel()
		if _, err := NewRasterImage([]byte("not an image")); err == nil {
			t.Error("expected error for garbage input")
		}
	})
}

// TestAuditFinish verifies that the outcome is recorded exactly once.
func TestAuditFinish(t *testing.T) {
	t.Parallel()

	t.Run("first outcome wins", func(t *testing.T) {
		t.Parallel()
		a := NewAudit("https://example.com")
		if !a.Finish(Success("ref-1")) {
			t.Fatal("expected first Finish to succeed")
		}
		if a.Finish(Failure(errors.New("late"))) {
			t.Error("expected second Finish to be ignored")
		}
		if a.State != StateDone {
			t.Errorf("expected done, got %s", a.State)
		}
		if a.Outcome.Artifact != "ref-1" {
			t.Errorf("expected ref-1, got %q", a.Outcome.Artifact)
		}
	})

	t.Run("failure releases images", func(t *testing.T) {
		t.Parallel()
		img, err := NewRasterImage(encodePNG(t, 2, 2))
		if err != nil {
			t.Fatal(err)
		}
		a := NewAudit("https://example.com")
		a.Screenshot = img
		a.Finish(Failure(errors.New("boom")))
		if a.State != StateFailed {
			t.Errorf("expected failed, got %s", a.State)
		}
		if a.Screenshot != nil {
			t.Error("expected screenshot to be released")
		}
		if a.Outcome.Reason() != "boom" {
			t.Errorf("unexpected reason %q", a.Outcome.Reason())
		}
	})
}

// TestStateString verifies the state names used in logs.
func TestStateString(t *testing.T) {
	t.Parallel()

	want := map[State]string{
		StatePending:    "pending",
		StateCapturing:  "capturing",
		StateAnalyzing:  "analyzing",
		StateRendering:  "rendering",
		StateAssembling: "assembling",
		StateDone:       "done",
		StateFailed:     "failed",
		State(99):       "unknown",
	}
	for s, name := range want {
		if s.String() != name {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), name)
		}
	}
	if !StateDone.Terminal() || !StateFailed.Terminal() || StateRendering.Terminal() {
		t.Error("unexpected Terminal() result")
	}
}
