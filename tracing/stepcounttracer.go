package tracing

// StepCountTracer counts how many times each step is reached by the tasks
// that pass its filter. Steps are grouped by what they describe.
type StepCountTracer struct {
	filter TaskFilter

	inflightTasks map[string]Task
	stepNames     []string
	stepCount     map[string]uint64
}

// NewStepCountTracer creates a new StepCountTracer. A nil filter accepts every
// task.
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &StepCountTracer{
		filter:        filter,
		inflightTasks: make(map[string]Task),
		stepCount:     make(map[string]uint64),
	}
}

// StepNames returns the steps seen so far, in the order they first appeared.
func (t *StepCountTracer) StepNames() []string {
	return t.stepNames
}

// StepCount returns how many times the step was reached.
func (t *StepCountTracer) StepCount(what string) uint64 {
	return t.stepCount[what]
}

// StartTask starts following the task if it passes the filter.
func (t *StepCountTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.inflightTasks[task.ID] = task
}

// StepTask counts the steps of a followed task.
func (t *StepCountTracer) StepTask(task Task) {
	if _, ok := t.inflightTasks[task.ID]; !ok {
		return
	}

	for _, step := range task.Steps {
		if _, seen := t.stepCount[step.What]; !seen {
			t.stepNames = append(t.stepNames, step.What)
		}

		t.stepCount[step.What]++
	}
}

// EndTask stops following the task.
func (t *StepCountTracer) EndTask(task Task) {
	delete(t.inflightTasks, task.ID)
}
