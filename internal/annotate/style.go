package annotate

import "image/color"

// Style holds the colors and sizes used for overlays.
type Style struct {
	// Outline is the dark under-layer of lines, markers and label borders.
	Outline color.Color

	// Fill is the bright top layer of lines, markers and label backgrounds.
	Fill color.Color

	// Text is the headline color.
	Text color.Color

	// OutlineWidth is the width of the dark pointer line.
	OutlineWidth float64

	// FillWidth is the width of the bright pointer line drawn over the outline.
	FillWidth float64

	// MarkerRadius is the radius of the bright marker circle.
	MarkerRadius float64

	// MarkerRing is how far the dark circle extends past the bright one.
	MarkerRing float64

	// LabelPadding is added around the measured headline on every side.
	LabelPadding float64

	// LabelBorder is the width of the label's dark border.
	LabelBorder float64
}

// DefaultStyle is black-outlined gold, readable on light and dark pages.
func DefaultStyle() Style {
	return Style{
		Outline:      color.Black,
		Fill:         color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF},
		Text:         color.Black,
		OutlineWidth: 6,
		FillWidth:    4,
		MarkerRadius: 10,
		MarkerRing:   2,
		LabelPadding: 5,
		LabelBorder:  2,
	}
}
