package stream

import (
	"sync"

	"github.com/nao1215/uxaudit/internal/model"
)

// Queue is an unbounded FIFO of progress events with a single consumer.
// Emit never blocks, so a slow consumer cannot stall the pipeline.
type Queue struct {
	mu     sync.Mutex
	items  []model.ProgressEvent
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Emit appends ev and wakes the consumer.
func (q *Queue) Emit(ev model.ProgressEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	// A pending signal already covers this item.
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Ready is signalled after one or more Emit calls.
func (q *Queue) Ready() <-chan struct{} {
	return q.notify
}

// Drain removes and returns every queued event in arrival order.
func (q *Queue) Drain() []model.ProgressEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
