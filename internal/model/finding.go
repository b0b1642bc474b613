package model

// NormalizedScale is the upper bound of the normalized coordinate space used
// by the vision model. A value of 0 is the top/left edge of the image and
// NormalizedScale is the bottom/right edge.
const NormalizedScale = 1000.0

// LabelBox is the normalized rectangle where a finding's headline is placed.
// The field order follows the vision model output: [ymin, xmin, ymax, xmax].
type LabelBox struct {
	MinY float64 `json:"min_y"`
	MinX float64 `json:"min_x"`
	MaxY float64 `json:"max_y"`
	MaxX float64 `json:"max_x"`
}

// NewLabelBox builds a LabelBox and orders each axis so that min <= max.
func NewLabelBox(minY, minX, maxY, maxX float64) LabelBox {
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	return LabelBox{MinY: minY, MinX: minX, MaxY: maxY, MaxX: maxX}
}

// Clamp returns a copy of the box with every coordinate limited to
// [0, NormalizedScale].
func (b LabelBox) Clamp() LabelBox {
	return LabelBox{
		MinY: clampNormalized(b.MinY),
		MinX: clampNormalized(b.MinX),
		MaxY: clampNormalized(b.MaxY),
		MaxX: clampNormalized(b.MaxX),
	}
}

// Point is a normalized position in [y, x] order.
type Point struct {
	Y float64 `json:"y"`
	X float64 `json:"x"`
}

// Clamp returns a copy of the point limited to [0, NormalizedScale].
func (p Point) Clamp() Point {
	return Point{Y: clampNormalized(p.Y), X: clampNormalized(p.X)}
}

// InRange reports whether both coordinates are inside the normalized space.
func (p Point) InRange() bool {
	return p.Y >= 0 && p.Y <= NormalizedScale && p.X >= 0 && p.X <= NormalizedScale
}

// Finding is one UX/UI issue reported by the vision model.
//
// LabelBox and TargetPoint are pointers because the model may omit them or
// return malformed arrays. A finding without placement is still part of the
// narrative report, it is only skipped by the renderer.
type Finding struct {
	// ID is a positive integer unique within one analysis.
	ID int `json:"id"`

	// Headline is the short, punchy, uppercase label drawn on the image.
	Headline string `json:"headline"`

	// Description explains why the issue hurts the page.
	Description string `json:"description"`

	// Recommendation is the suggested fix.
	Recommendation string `json:"recommendation"`

	// LabelBox is where the headline is drawn.
	LabelBox *LabelBox `json:"label_box,omitempty"`

	// TargetPoint is the spot the pointer line ends at.
	TargetPoint *Point `json:"target_point,omitempty"`
}

// Placeable reports whether the finding carries enough geometry to be drawn.
func (f Finding) Placeable() bool {
	return f.LabelBox != nil && f.TargetPoint != nil
}

func clampNormalized(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > NormalizedScale:
		return NormalizedScale
	default:
		return v
	}
}
