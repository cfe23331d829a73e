package sim

import (
	"fmt"

	"github.com/addrummond/heap"
	"github.com/sarchlab/worksim/idgen"
)

// EventQueue is a queue of events ordered by the time of the events. Events
// scheduled for the same time are returned in the order they were pushed.
//
// EventQueue is not safe for concurrent use; the simulation has a single
// thread of control.
type EventQueue[P any] struct {
	events heap.Heap[Event[P], heap.Min]
	seq    idgen.Generator
	len    int
	last   VTime
}

// NewEventQueue creates and returns a newly created EventQueue.
func NewEventQueue[P any]() *EventQueue[P] {
	return &EventQueue[P]{
		seq: idgen.New(),
	}
}

// Push schedules payload to happen at time t and returns the sequence number
// assigned to the event.
func (q *EventQueue[P]) Push(t VTime, payload P) uint64 {
	if t < q.last {
		panic(fmt.Sprintf(
			"sim: cannot schedule event in the past, evt @ %v, now %v",
			t, q.last,
		))
	}

	seq := uint64(q.seq.Generate())
	heap.PushOrderable(&q.events, Event[P]{
		Time:    t,
		Seq:     seq,
		Payload: payload,
	})
	q.len++

	return seq
}

// Pop removes and returns the earliest event. The second return value is
// false if the queue is empty.
func (q *EventQueue[P]) Pop() (Event[P], bool) {
	evt, ok := heap.PopOrderable(&q.events)
	if !ok {
		return evt, false
	}

	q.len--
	q.last = evt.Time

	return evt, true
}

// Peek returns the earliest event without removing it from the queue.
func (q *EventQueue[P]) Peek() (Event[P], bool) {
	return heap.Peek(&q.events)
}

// Len returns the number of events in the queue.
func (q *EventQueue[P]) Len() int {
	return q.len
}
