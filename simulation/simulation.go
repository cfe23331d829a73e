// Package simulation puts together an engine, the workers and tasks of a
// scenario, and the tracers that observe a run.
package simulation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/worksim/datarecording"
	"github.com/sarchlab/worksim/engine"
	"github.com/sarchlab/worksim/sim"
	"github.com/sarchlab/worksim/tracing"
	"github.com/sarchlab/worksim/workload"
)

// A Simulation provides the services required to run a scenario.
type Simulation[K comparable] struct {
	id     string
	engine *engine.Engine[K]

	dataRecorder datarecording.DataRecorder
	visTracer    *tracing.DBTracer
	spanTracer   *tracing.OTelTracer

	trackUtil   bool
	busyTracers map[string]*tracing.BusyTimeTracer
	blockers    *tracing.StepCountTracer

	workers         []*workload.Worker[K]
	workerNameIndex map[string]int
	tasks           []*workload.Task[K]
	taskNameIndex   map[string]int

	result *engine.Result
}

// ID returns the unique identifier of the simulation.
func (s *Simulation[K]) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation[K]) GetEngine() *engine.Engine[K] {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// unless data recording is enabled.
func (s *Simulation[K]) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetVisTracer returns the tracer that writes into the data recorder.
func (s *Simulation[K]) GetVisTracer() *tracing.DBTracer {
	return s.visTracer
}

// GetSpanTracer returns the tracer that reports tasks as OpenTelemetry spans.
func (s *Simulation[K]) GetSpanTracer() *tracing.OTelTracer {
	return s.spanTracer
}

// RegisterWorker registers a worker with the simulation. Workers are
// considered in registration order in every dispatch pass.
func (s *Simulation[K]) RegisterWorker(w *workload.Worker[K]) {
	name := w.Name()
	if _, found := s.workerNameIndex[name]; found {
		panic("worker " + name + " already registered")
	}

	s.workers = append(s.workers, w)
	s.workerNameIndex[name] = len(s.workers) - 1

	if s.trackUtil {
		t := tracing.NewBusyTimeTracer(s.engine, isWorkAt(name))
		tracing.CollectTrace(s.engine, t)
		s.busyTracers[name] = t
	}
}

func isWorkAt(where string) tracing.TaskFilter {
	return func(t tracing.Task) bool {
		return t.Where == where && t.Kind != engine.WaitKind
	}
}

// RegisterTask adds a task to the universe of tasks that must be completed.
func (s *Simulation[K]) RegisterTask(t *workload.Task[K]) {
	name := t.String()
	if _, found := s.taskNameIndex[name]; found {
		panic("task " + name + " already registered")
	}

	s.tasks = append(s.tasks, t)
	s.taskNameIndex[name] = len(s.tasks) - 1
}

// Workers returns the registered workers.
func (s *Simulation[K]) Workers() []*workload.Worker[K] {
	return s.workers
}

// Tasks returns the registered tasks.
func (s *Simulation[K]) Tasks() []*workload.Task[K] {
	return s.tasks
}

// GetWorkerByName returns the worker with the given name.
func (s *Simulation[K]) GetWorkerByName(name string) (*workload.Worker[K], bool) {
	i, found := s.workerNameIndex[name]
	if !found {
		return nil, false
	}

	return s.workers[i], true
}

// GetTaskByName returns the task with the given name.
func (s *Simulation[K]) GetTaskByName(name string) (*workload.Task[K], bool) {
	i, found := s.taskNameIndex[name]
	if !found {
		return nil, false
	}

	return s.tasks[i], true
}

// Run runs the registered workers over the registered tasks. A simulation can
// only run once.
func (s *Simulation[K]) Run() (engine.Result, error) {
	if s.result != nil {
		panic("simulation already ran")
	}

	result, err := s.engine.Run(s.workers, s.tasks)
	if err != nil {
		return engine.Result{}, err
	}

	s.result = &result

	return result, nil
}

// Utilization returns the share of the makespan during which the named
// worker was processing a task. It requires utilization tracking and a
// successful run.
func (s *Simulation[K]) Utilization(worker string) (float64, error) {
	if s.result == nil {
		return 0, errors.New("simulation has not completed")
	}

	t, found := s.busyTracers[worker]
	if !found {
		return 0, fmt.Errorf("utilization of worker %q is not tracked", worker)
	}

	if s.result.Makespan == 0 {
		return 0, nil
	}

	return float64(t.BusyTime() / s.result.Makespan), nil
}

// BusyTime returns how long the named worker was processing tasks.
func (s *Simulation[K]) BusyTime(worker string) (sim.VTime, bool) {
	t, found := s.busyTracers[worker]
	if !found {
		return 0, false
	}

	return t.BusyTime(), true
}

// A Blocker is a task that kept free workers waiting.
type Blocker struct {
	Task  string
	Times uint64
}

// Blockers lists the tasks that kept a free worker waiting, in the order they
// first did. It requires blocker tracking.
func (s *Simulation[K]) Blockers() []Blocker {
	if s.blockers == nil {
		return nil
	}

	var blockers []Blocker
	for _, step := range s.blockers.StepNames() {
		blockers = append(blockers, Blocker{
			Task:  strings.TrimPrefix(step, engine.WaitingOnPrefix),
			Times: s.blockers.StepCount(step),
		})
	}

	return blockers
}

// Terminate flushes the trace and closes the data recorder.
func (s *Simulation[K]) Terminate() error {
	if s.dataRecorder == nil {
		return nil
	}

	s.visTracer.Terminate()

	return s.dataRecorder.Close()
}
