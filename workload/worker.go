package workload

import (
	"fmt"

	"github.com/gammazero/deque"
	"github.com/sarchlab/worksim/sim"
)

// DefaultSkill is the skill a worker has for any kind missing from its skill
// map.
const DefaultSkill = 0.0

// A Worker processes its queue of tasks strictly in order, one at a time.
type Worker[K comparable] struct {
	name      string
	skills    map[K]float64
	skillBase float64

	tasks    deque.Deque[*Task[K]]
	inFlight *Task[K]

	recordHistory bool
	history       []*Task[K]
}

// Name returns the name of the worker.
func (w *Worker[K]) Name() string {
	return w.name
}

// Skill returns the skill of the worker for a kind of task. Kinds that are
// not in the skill map get DefaultSkill.
func (w *Worker[K]) Skill(kind K) float64 {
	skill, found := w.skills[kind]
	if !found {
		return DefaultSkill
	}

	return skill
}

// SkillBase returns the base of the worker's skill curve.
func (w *Worker[K]) SkillBase() float64 {
	return w.skillBase
}

// Enqueue appends a task to the tail of the queue.
func (w *Worker[K]) Enqueue(task *Task[K]) {
	w.tasks.PushBack(task)
}

// Len returns the number of tasks waiting in the queue. The in-flight task is
// not counted.
func (w *Worker[K]) Len() int {
	return w.tasks.Len()
}

// Tasks returns a snapshot of the queue, head first.
func (w *Worker[K]) Tasks() []*Task[K] {
	tasks := make([]*Task[K], w.tasks.Len())
	for i := range tasks {
		tasks[i] = w.tasks.At(i)
	}

	return tasks
}

// Head returns the task at the head of the queue.
func (w *Worker[K]) Head() (*Task[K], bool) {
	if w.tasks.Len() == 0 {
		return nil, false
	}

	return w.tasks.Front(), true
}

// PeekReady returns the head task if its dependencies are satisfied.
func (w *Worker[K]) PeekReady() (*Task[K], bool) {
	head, ok := w.Head()
	if !ok || !head.DependenciesSatisfied() {
		return nil, false
	}

	return head, true
}

// AdvanceIfReady completes the head task right away if its dependencies are
// satisfied, records it into the history, and removes it from the queue.
func (w *Worker[K]) AdvanceIfReady() (*Task[K], bool) {
	head, ok := w.PeekReady()
	if !ok {
		return nil, false
	}

	if err := head.AttemptComplete(); err != nil {
		return nil, false
	}

	w.tasks.PopFront()
	w.record(head)

	return head, true
}

// EffectiveDuration returns the time this worker takes to finish the task.
func (w *Worker[K]) EffectiveDuration(task *Task[K]) (sim.VTime, error) {
	return task.ComputeDurationWithBase(w.Skill(task.Kind()), w.skillBase)
}

// Compact drops completed tasks from the head of the queue and returns how
// many were dropped.
func (w *Worker[K]) Compact() int {
	dropped := 0
	for w.tasks.Len() > 0 && w.tasks.Front().Completed() {
		w.tasks.PopFront()
		dropped++
	}

	return dropped
}

// Busy tells if the worker has a task in flight.
func (w *Worker[K]) Busy() bool {
	return w.inFlight != nil
}

// InFlight returns the task the worker is currently processing.
func (w *Worker[K]) InFlight() (*Task[K], bool) {
	return w.inFlight, w.inFlight != nil
}

// Idle tells if the worker has nothing in flight and nothing queued. It does
// not modify the queue; call Compact first to discard completed tasks.
func (w *Worker[K]) Idle() bool {
	return w.inFlight == nil && w.tasks.Len() == 0
}

// Dispatch removes the head task from the queue and marks it in flight. It
// does nothing if the worker is busy, the queue is empty, or the head task is
// blocked by a dependency.
func (w *Worker[K]) Dispatch() (*Task[K], bool) {
	if w.Busy() {
		return nil, false
	}

	head, ok := w.PeekReady()
	if !ok {
		return nil, false
	}

	w.tasks.PopFront()
	w.inFlight = head

	return head, true
}

// Finish completes the in-flight task and frees the worker.
func (w *Worker[K]) Finish(task *Task[K]) error {
	if w.inFlight != task {
		return fmt.Errorf("%w: worker %s is not processing task %s",
			ErrInvalidState, w.name, task)
	}

	if err := task.AttemptComplete(); err != nil {
		return err
	}

	w.inFlight = nil
	w.record(task)

	return nil
}

// History returns the tasks the worker has completed, oldest first. It is nil
// unless history recording was requested.
func (w *Worker[K]) History() []*Task[K] {
	if !w.recordHistory {
		return nil
	}

	history := make([]*Task[K], len(w.history))
	copy(history, w.history)

	return history
}

func (w *Worker[K]) record(task *Task[K]) {
	if w.recordHistory {
		w.history = append(w.history, task)
	}
}

func (w *Worker[K]) String() string {
	return fmt.Sprintf("%s%v", w.name, w.Tasks())
}
