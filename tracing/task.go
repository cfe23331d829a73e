package tracing

import "github.com/sarchlab/worksim/sim"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time sim.VTime `json:"time"`
	What string    `json:"what"`
}

// A Task is a piece of work observed by tracers. In a simulation run, one
// Task is traced for every dispatch of a workload task to a worker.
type Task struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	What      string     `json:"what"`
	Where     string     `json:"where"`
	StartTime sim.VTime  `json:"start_time"`
	EndTime   sim.VTime  `json:"end_time"`
	Steps     []TaskStep `json:"steps"`
	Detail    any        `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// AtLocation returns a filter that accepts tasks processed at where.
func AtLocation(where string) TaskFilter {
	return func(t Task) bool {
		return t.Where == where
	}
}

// OfKind returns a filter that accepts tasks of the given kind.
func OfKind(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}
