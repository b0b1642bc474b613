// Package annotate draws vision-model findings on top of a screenshot.
//
// For every placeable finding the Renderer draws a two-layer pointer line
// from the center of the label box to the target point, a two-layer circle
// marker at the target, and the uppercase headline on a solid label anchored
// at the box's top-left corner. Drawing happens on a working copy made with
// fogleman/gg; the input RasterImage is never modified.
//
// A finding that cannot be drawn is skipped and counted in Stats. Only a
// base image that cannot be decoded fails the whole render.
package annotate
