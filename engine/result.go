package engine

import (
	"github.com/sarchlab/worksim/sim"
	"go.uber.org/zap/zapcore"
)

// A Completion records one task processed by one worker.
type Completion struct {
	ID          string
	Task        string
	Worker      string
	WorkerIndex int
	Start       sim.VTime
	End         sim.VTime
}

// MarshalLogObject lets zap log a completion as a structured object.
func (c Completion) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", c.ID)
	enc.AddString("task", c.Task)
	enc.AddString("worker", c.Worker)
	enc.AddInt("worker_index", c.WorkerIndex)
	enc.AddFloat64("start", float64(c.Start))
	enc.AddFloat64("end", float64(c.End))

	return nil
}

// Result is the outcome of a successful run.
type Result struct {
	// Makespan is the time at which the last task completes.
	Makespan sim.VTime

	// Completions lists every processed task in the order the events were
	// resolved.
	Completions []Completion
}

// CompletionsOf returns the completions processed by the named worker.
func (r Result) CompletionsOf(worker string) []Completion {
	var out []Completion
	for _, c := range r.Completions {
		if c.Worker == worker {
			out = append(out, c)
		}
	}

	return out
}
