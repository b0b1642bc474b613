// Package model defines the data structures shared by every stage of a
// visual audit run.
//
// A run starts from a target URL, produces one RasterImage from the capture
// stage, one AnalysisResult from the vision stage, one annotated RasterImage
// from the renderer and finally a single Outcome. The types in this package
// carry no behavior beyond small validation helpers so that the pipeline,
// renderer and report generators can share them without import cycles.
package model
