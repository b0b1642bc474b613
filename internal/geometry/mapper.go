package geometry

import "github.com/nao1215/uxaudit/internal/model"

// Pixel is a position in image space. Values may fall outside the canvas
// when the normalized input was out of range.
type Pixel struct {
	X float64
	Y float64
}

// Mapper maps normalized coordinates onto an image of fixed size.
type Mapper struct {
	width  float64
	height float64
}

// NewMapper returns a Mapper for an image of width x height pixels.
func NewMapper(width, height int) Mapper {
	return Mapper{width: float64(width), height: float64(height)}
}

// Scale converts one normalized coordinate against dimension.
func Scale(normalized, dimension float64) float64 {
	return (normalized / model.NormalizedScale) * dimension
}

// X maps a normalized horizontal coordinate.
func (m Mapper) X(normalized float64) float64 {
	return Scale(normalized, m.width)
}

// Y maps a normalized vertical coordinate.
func (m Mapper) Y(normalized float64) float64 {
	return Scale(normalized, m.height)
}

// Point maps a normalized point.
func (m Mapper) Point(p model.Point) Pixel {
	return Pixel{X: m.X(p.X), Y: m.Y(p.Y)}
}

// TopLeft maps the top-left corner of a box.
func (m Mapper) TopLeft(b model.LabelBox) Pixel {
	return Pixel{X: m.X(b.MinX), Y: m.Y(b.MinY)}
}

// Center maps the midpoint of a box, computed per axis.
func (m Mapper) Center(b model.LabelBox) Pixel {
	return Pixel{
		X: m.X((b.MinX + b.MaxX) / 2),
		Y: m.Y((b.MinY + b.MaxY) / 2),
	}
}

// Inside reports whether p lies on the canvas.
func (m Mapper) Inside(p Pixel) bool {
	return p.X >= 0 && p.X <= m.width && p.Y >= 0 && p.Y <= m.height
}
