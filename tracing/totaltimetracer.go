package tracing

import (
	"github.com/sarchlab/worksim/sim"
)

// TotalTimeTracer can collect the total time of executing a certain type of
// task. If the execution of two tasks overlaps, this tracer will simply add
// the two task processing time together.
type TotalTimeTracer struct {
	timeTeller    sim.TimeTeller
	filter        TaskFilter
	totalTime     sim.VTime
	count         int
	inflightTasks map[string]sim.VTime
}

// NewTotalTimeTracer creates a new TotalTimeTracer
func NewTotalTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	return &TotalTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]sim.VTime),
	}
}

// TotalTime returns the total time has been spent on a certain type of tasks.
func (t *TotalTimeTracer) TotalTime() sim.VTime {
	return t.totalTime
}

// TaskCount returns the number of tasks that have ended.
func (t *TotalTimeTracer) TaskCount() int {
	return t.count
}

// AverageTime returns the mean processing time of the ended tasks.
func (t *TotalTimeTracer) AverageTime() sim.VTime {
	if t.count == 0 {
		return 0
	}

	return t.totalTime / sim.VTime(t.count)
}

// StartTask records the task start time
func (t *TotalTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.inflightTasks[task.ID] = t.timeTeller.CurrentTime()
}

// StepTask does nothing
func (t *TotalTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *TotalTimeTracer) EndTask(task Task) {
	start, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	t.totalTime += t.timeTeller.CurrentTime() - start
	t.count++
	delete(t.inflightTasks, task.ID)
}
