package sim

import "cmp"

// VTime is a point or a span on the simulated clock. Units are whatever the
// caller uses for task durations.
type VTime float64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTime
}

// An Event is something going to happen in the future. Payload is plain data
// owned by whoever scheduled the event.
type Event[P any] struct {
	// Time is when the event should be handled.
	Time VTime

	// Seq orders events that share the same time. Lower values are handled
	// first.
	Seq uint64

	Payload P
}

// Cmp orders events by time, then by sequence number.
func (a *Event[P]) Cmp(b *Event[P]) int {
	if c := cmp.Compare(a.Time, b.Time); c != 0 {
		return c
	}

	return cmp.Compare(a.Seq, b.Seq)
}
