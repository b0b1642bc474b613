// Package geometry converts normalized vision-model coordinates into pixel
// positions on a concrete image.
//
// The vision model describes positions on a 0..1000 scale that does not
// depend on the screenshot's real size. A Mapper holds the target width and
// height and applies pixel = (normalized / 1000) * dimension on each axis.
// No bounds checking is done here; callers decide whether to clamp.
package geometry
