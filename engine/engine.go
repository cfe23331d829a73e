package engine

import (
	"fmt"

	"github.com/sarchlab/worksim/idgen"
	"github.com/sarchlab/worksim/sim"
	"github.com/sarchlab/worksim/tracing"
	"github.com/sarchlab/worksim/workload"
	"go.uber.org/zap"
)

// WaitKind is the tracing kind of the interval in which a free worker waits
// for the dependencies of the task at the head of its queue.
const WaitKind = "wait"

// WaitingOnPrefix starts the step added to a wait for every dependency the
// waiting task needs.
const WaitingOnPrefix = "waiting on "

type dispatched[K comparable] struct {
	worker      *workload.Worker[K]
	workerIndex int
	task        *workload.Task[K]
	start       sim.VTime
}

// An Engine runs simulations. It can run several simulations one after the
// other, but it is not safe for concurrent use.
type Engine[K comparable] struct {
	*sim.HookableBase

	name    string
	logger  *zap.Logger
	verbose bool

	now     sim.VTime
	queue   *sim.EventQueue[dispatched[K]]
	waitIDs idgen.Generator
	waits   map[*workload.Task[K]]string
}

// Name returns the name of the engine.
func (e *Engine[K]) Name() string {
	return e.name
}

// CurrentTime returns the simulation clock.
func (e *Engine[K]) CurrentTime() sim.VTime {
	return e.now
}

// Run processes the queues of the workers until no event is left and returns
// the makespan. The universe holds every task the caller expects to complete;
// it may be nil, in which case only the worker queues are checked.
//
// Run returns an error wrapping ErrDeadlock if tasks remain that can never
// start, and an error wrapping workload.ErrInvalidArgument if a worker has a
// negative skill for a task it must run. Task states are mutated; a second
// run needs fresh tasks and workers.
func (e *Engine[K]) Run(
	workers []*workload.Worker[K],
	universe []*workload.Task[K],
) (Result, error) {
	e.reset()
	e.logQueues(workers)

	var result Result
	for {
		if err := e.dispatchReady(workers); err != nil {
			return Result{}, err
		}

		evt, ok := e.queue.Pop()
		if !ok {
			break
		}

		c, err := e.resolve(evt)
		if err != nil {
			return Result{}, err
		}

		result.Completions = append(result.Completions, c)
		e.logCompletion(c, universe)
	}

	if err := e.allTasksMustBeCompleted(workers, universe); err != nil {
		e.logger.Warn("simulation stalled", zap.Error(err))
		return Result{}, err
	}

	result.Makespan = e.now

	if e.verbose {
		e.logger.Debug("simulation complete",
			zap.Float64("makespan", float64(e.now)),
			zap.Int("completions", len(result.Completions)))
	}

	return result, nil
}

func (e *Engine[K]) reset() {
	e.now = 0
	e.queue = sim.NewEventQueue[dispatched[K]]()
	e.waitIDs = idgen.New()
	e.waits = make(map[*workload.Task[K]]string)
}

// dispatchReady gives every free worker, in order, the chance to start the
// task at the head of its queue.
func (e *Engine[K]) dispatchReady(workers []*workload.Worker[K]) error {
	for i, w := range workers {
		if w.Busy() {
			continue
		}

		w.Compact()

		head, ok := w.Head()
		if !ok {
			continue
		}

		if !head.DependenciesSatisfied() {
			e.startWaiting(w, head)
			continue
		}

		duration, err := w.EffectiveDuration(head)
		if err != nil {
			return fmt.Errorf("worker %s cannot run task %s: %w",
				w.Name(), head, err)
		}

		task, _ := w.Dispatch()
		e.stopWaiting(task)

		seq := e.queue.Push(e.now+duration, dispatched[K]{
			worker:      w,
			workerIndex: i,
			task:        task,
			start:       e.now,
		})

		tracing.StartTask(
			traceID(seq), e, kindName(task.Kind()), task.String(), w.Name(), task)
	}

	return nil
}

func (e *Engine[K]) startWaiting(w *workload.Worker[K], task *workload.Task[K]) {
	if _, waiting := e.waits[task]; waiting {
		return
	}

	id := WaitKind + "-" + e.waitIDs.Generate().String()
	e.waits[task] = id

	tracing.StartTask(id, e, WaitKind, task.String(), w.Name(), task)

	for _, dep := range task.PendingDependencies() {
		tracing.AddTaskStep(id, e, WaitingOnPrefix+dep.String())
	}
}

func (e *Engine[K]) stopWaiting(task *workload.Task[K]) {
	id, waiting := e.waits[task]
	if !waiting {
		return
	}

	delete(e.waits, task)
	tracing.EndTask(id, e)
}

func (e *Engine[K]) resolve(evt sim.Event[dispatched[K]]) (Completion, error) {
	e.now = evt.Time
	d := evt.Payload

	c := Completion{
		ID:          traceID(evt.Seq),
		Task:        d.task.String(),
		Worker:      d.worker.Name(),
		WorkerIndex: d.workerIndex,
		Start:       d.start,
		End:         evt.Time,
	}

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    sim.HookPosBeforeEvent,
		Item:   c,
	})

	if err := d.worker.Finish(d.task); err != nil {
		return Completion{}, err
	}

	tracing.EndTask(c.ID, e)

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    sim.HookPosAfterEvent,
		Item:   c,
	})

	return c, nil
}

func (e *Engine[K]) allTasksMustBeCompleted(
	workers []*workload.Worker[K],
	universe []*workload.Task[K],
) error {
	queued := make(map[*workload.Task[K]]string)
	for _, w := range workers {
		w.Compact()

		for _, t := range w.Tasks() {
			if _, found := queued[t]; !found {
				queued[t] = w.Name()
			}
		}
	}

	var blocked []BlockedTask
	for _, w := range workers {
		tasks := w.Tasks()
		for i, t := range tasks {
			b := BlockedTask{
				Task:   t.String(),
				Worker: w.Name(),
			}

			if i > 0 {
				b.Behind = tasks[0].String()
			}

			for _, dep := range t.PendingDependencies() {
				b.Waiting = append(b.Waiting, dep.String())

				if _, found := queued[dep]; !found {
					b.Unassigned = append(b.Unassigned, dep.String())
				}
			}

			blocked = append(blocked, b)
		}
	}

	for _, t := range universe {
		if _, found := queued[t]; found || t.Completed() {
			continue
		}

		blocked = append(blocked, BlockedTask{Task: t.String()})
	}

	if len(blocked) == 0 {
		return nil
	}

	return &DeadlockError{At: e.now, Blocked: blocked}
}

func (e *Engine[K]) logQueues(workers []*workload.Worker[K]) {
	if !e.verbose {
		return
	}

	for _, w := range workers {
		tasks := w.Tasks()
		names := make([]string, len(tasks))
		for i, t := range tasks {
			names[i] = t.String()
		}

		e.logger.Debug("initial queue",
			zap.String("worker", w.Name()),
			zap.Strings("tasks", names))
	}
}

func (e *Engine[K]) logCompletion(c Completion, universe []*workload.Task[K]) {
	if !e.verbose {
		return
	}

	done := 0
	for _, t := range universe {
		if t.Completed() {
			done++
		}
	}

	e.logger.Debug("task completed",
		zap.Object("completion", c),
		zap.Int("done", done),
		zap.Int("total", len(universe)))
}

func traceID(seq uint64) string {
	return idgen.ID(seq).String()
}

func kindName[K comparable](kind K) string {
	name := fmt.Sprint(kind)
	if name == "" {
		return "task"
	}

	return name
}
