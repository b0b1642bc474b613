package model

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	// Decoders for the formats screenshot services return.
	_ "image/jpeg"
	_ "image/png"
)

// ErrEmptyImage is returned when an image buffer has no bytes.
var ErrEmptyImage = errors.New("image buffer is empty")

// RasterImage is an encoded image together with its pixel dimensions.
//
// The buffer is treated as immutable. A RasterImage is handed from stage to
// stage and the previous holder drops its reference, so no two stages hold
// the same image at once.
type RasterImage struct {
	data   []byte
	width  int
	height int
	format string
}

// NewRasterImage wraps an encoded image. The header is decoded to learn the
// dimensions and format; the pixel data is not decoded.
// The caller must not modify data afterwards.
func NewRasterImage(data []byte) (*RasterImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	return &RasterImage{
		data:   data,
		width:  cfg.Width,
		height: cfg.Height,
		format: format,
	}, nil
}

// Width returns the width in pixels.
func (r *RasterImage) Width() int { return r.width }

// Height returns the height in pixels.
func (r *RasterImage) Height() int { return r.height }

// Format returns the encoding name reported by the image package ("png", "jpeg").
func (r *RasterImage) Format() string { return r.format }

// Size returns the encoded size in bytes.
func (r *RasterImage) Size() int { return len(r.data) }

// Bytes returns the encoded buffer. It must not be modified.
func (r *RasterImage) Bytes() []byte { return r.data }

// Reader returns a fresh reader over the encoded buffer.
func (r *RasterImage) Reader() io.Reader { return bytes.NewReader(r.data) }

// MIMEType returns the media type matching Format.
func (r *RasterImage) MIMEType() string {
	switch r.format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// Decode decodes the full pixel data into a new image.Image.
func (r *RasterImage) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(r.data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
