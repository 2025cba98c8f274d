package task

// Queue is a bounded FIFO of progress events shared between one producing
// worker and one draining consumer. Send blocks once the queue is full, so a
// producer can outrun a consumer by at most the queue capacity; the consumer
// side never blocks.
type Queue[P any] struct {
	events chan P
}

// DefaultQueueCapacity bounds how many progress events may sit undrained
// between two consumer polls.
const DefaultQueueCapacity = 64

// NewQueue creates a queue with the given capacity. Non-positive capacities
// fall back to DefaultQueueCapacity.
func NewQueue[P any](capacity int) *Queue[P] {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue[P]{
		events: make(chan P, capacity),
	}
}

// Send enqueues one event, preserving emission order. It blocks while the
// queue is full; a consumer that stopped draining has abandoned the task,
// and cancellation also flows through its polling.
func (q *Queue[P]) Send(event P) {
	q.events <- event
}

// TryDrain synchronously hands every currently queued event to visit, in
// emission order, and returns how many were delivered. It never blocks.
func (q *Queue[P]) TryDrain(visit func(P)) int {
	drained := 0
	for {
		select {
		case event := <-q.events:
			visit(event)
			drained++
		default:
			return drained
		}
	}
}
