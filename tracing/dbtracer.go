package tracing

import (
	"github.com/sarchlab/worksim/datarecording"
	"github.com/sarchlab/worksim/idgen"
	"github.com/sarchlab/worksim/sim"
	"github.com/tebeka/atexit"
)

// TaskTableName is the table that holds one row per traced task.
const TaskTableName = "worksim_tasks"

// MilestoneTableName is the table that holds task milestones.
const MilestoneTableName = "worksim_milestones"

// TaskTableEntry is the row format of the task table.
type TaskTableEntry struct {
	ID        string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
}

// DBTracer is a tracer that can store tasks into a database.
type DBTracer struct {
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder
	ids        idgen.Generator

	tracingTasks map[string]Task
	terminated   bool
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TaskTableName, TaskTableEntry{})
	dataRecorder.CreateTable(MilestoneTableName, Milestone{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		ids:          idgen.New(),
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.startingTaskMustBeValid(task)

	if t.terminated {
		return
	}

	task.StartTime = t.timeTeller.CurrentTime()
	t.tracingTasks[task.ID] = task
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task location must be set")
	}
}

// StepTask records every step of the task as a milestone.
func (t *DBTracer) StepTask(task Task) {
	if t.terminated {
		return
	}

	location := ""
	if original, ok := t.tracingTasks[task.ID]; ok {
		location = original.Where
	}

	for _, step := range task.Steps {
		t.backend.InsertData(MilestoneTableName, Milestone{
			ID:       t.ids.Generate().String(),
			TaskID:   task.ID,
			What:     step.What,
			Location: location,
			Time:     float64(t.timeTeller.CurrentTime()),
		})
	}
}

// EndTask marks the end of a task and writes it to the database.
func (t *DBTracer) EndTask(task Task) {
	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndTime = t.timeTeller.CurrentTime()

	t.backend.InsertData(TaskTableName, TaskTableEntry{
		ID:        originalTask.ID,
		Kind:      originalTask.Kind,
		What:      originalTask.What,
		Location:  originalTask.Where,
		StartTime: float64(originalTask.StartTime),
		EndTime:   float64(originalTask.EndTime),
	})

	delete(t.tracingTasks, task.ID)
}

// Terminate drops the tasks that never ended and flushes the backend.
func (t *DBTracer) Terminate() {
	if t.terminated {
		return
	}

	t.terminated = true
	t.tracingTasks = nil
	t.backend.Flush()
}
