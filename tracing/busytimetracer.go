package tracing

import (
	"slices"

	"github.com/sarchlab/worksim/sim"
)

type taskTimeStartEnd struct {
	start, end sim.VTime
}

// BusyTimeTracer traces the time that a domain is processing a kind of task.
// If the task processing time overlaps, this tracer only consider one instance
// of the overlapped time.
type BusyTimeTracer struct {
	timeTeller    sim.TimeTeller
	filter        TaskFilter
	inflightTasks map[string]sim.VTime
	taskTimes     []taskTimeStartEnd
}

// NewBusyTimeTracer creates a new BusyTimeTracer
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]sim.VTime),
	}
}

// BusyTime returns the total time has been spent on a certain type of tasks.
// Tasks still in flight are not counted.
func (t *BusyTimeTracer) BusyTime() sim.VTime {
	intervals := slices.Clone(t.taskTimes)
	slices.SortFunc(intervals, func(a, b taskTimeStartEnd) int {
		switch {
		case a.start < b.start:
			return -1
		case a.start > b.start:
			return 1
		default:
			return 0
		}
	})

	var busy sim.VTime
	var current *taskTimeStartEnd

	for i := range intervals {
		next := &intervals[i]
		if current != nil && next.start <= current.end {
			current.end = max(current.end, next.end)
			continue
		}

		if current != nil {
			busy += current.end - current.start
		}

		current = next
	}

	if current != nil {
		busy += current.end - current.start
	}

	return busy
}

// TerminateAllTasks will mark all the in-flight tasks as completed at now.
func (t *BusyTimeTracer) TerminateAllTasks(now sim.VTime) {
	for id, start := range t.inflightTasks {
		t.taskTimes = append(t.taskTimes, taskTimeStartEnd{start: start, end: now})
		delete(t.inflightTasks, id)
	}
}

// StartTask records the task start time
func (t *BusyTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.inflightTasks[task.ID] = t.timeTeller.CurrentTime()
}

// StepTask does nothing
func (t *BusyTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *BusyTimeTracer) EndTask(task Task) {
	start, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	t.taskTimes = append(t.taskTimes, taskTimeStartEnd{
		start: start,
		end:   t.timeTeller.CurrentTime(),
	})
	delete(t.inflightTasks, task.ID)
}
