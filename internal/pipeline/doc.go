// Package pipeline runs an audit through its stages.
//
// A run moves through capturing, analyzing, rendering and assembling, in
// that order, and ends in exactly one terminal Outcome. Each stage emits one
// progress message before it starts work. Capture and assembly failures
// end the run; analysis and rendering failures degrade it so a report is
// still produced.
//
// BatchRunner runs independent audits concurrently with errgroup.
package pipeline
