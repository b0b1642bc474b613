// Package stream turns a running audit into an ordered event sequence.
//
// A Queue collects progress events from the pipeline without ever blocking
// it. A Bridge waits on the queue and on the run's outcome at the same time
// and emits every queued progress event, then exactly one terminal event.
// Progress emitted before the outcome is always delivered before the
// terminal event, even when the outcome is observed first.
package stream
