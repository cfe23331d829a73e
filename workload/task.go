package workload

import (
	"fmt"
	"math"
	"strings"

	"github.com/sarchlab/worksim/sim"
)

// DefaultSkillBase is the base of the skill curve used by ComputeDuration.
// Each unit of skill halves the duration.
const DefaultSkillBase = 2.0

// A Task is a unit of work of a certain kind. It may only complete after all
// of its dependencies have completed.
type Task[K comparable] struct {
	// Name identifies the task in traces and error reports.
	Name string

	kind         K
	baseDuration sim.VTime
	dependencies []*Task[K]
	completed    bool
}

// NewTask creates a task. The dependency list is fixed for the lifetime of the
// task. NewTask panics if baseDuration is negative or not a number.
func NewTask[K comparable](
	name string,
	kind K,
	baseDuration sim.VTime,
	dependencies ...*Task[K],
) *Task[K] {
	if baseDuration < 0 || math.IsNaN(float64(baseDuration)) {
		panic(fmt.Sprintf("task %q: base duration must be non-negative, got %v",
			name, baseDuration))
	}

	deps := make([]*Task[K], 0, len(dependencies))
	for _, d := range dependencies {
		if d == nil {
			panic(fmt.Sprintf("task %q: nil dependency", name))
		}

		deps = append(deps, d)
	}

	return &Task[K]{
		Name:         name,
		kind:         kind,
		baseDuration: baseDuration,
		dependencies: deps,
	}
}

// Kind returns the kind tag of the task.
func (t *Task[K]) Kind() K {
	return t.kind
}

// BaseDuration returns the time the task takes at skill 0.
func (t *Task[K]) BaseDuration() sim.VTime {
	return t.baseDuration
}

// Dependencies returns a copy of the prerequisite list.
func (t *Task[K]) Dependencies() []*Task[K] {
	deps := make([]*Task[K], len(t.dependencies))
	copy(deps, t.dependencies)

	return deps
}

// Completed tells if the task has completed.
func (t *Task[K]) Completed() bool {
	return t.completed
}

// DependenciesSatisfied returns true if every dependency has completed. It is
// vacuously true for a task without dependencies.
func (t *Task[K]) DependenciesSatisfied() bool {
	for _, d := range t.dependencies {
		if !d.completed {
			return false
		}
	}

	return true
}

// PendingDependencies returns the dependencies that have not completed yet.
func (t *Task[K]) PendingDependencies() []*Task[K] {
	var pending []*Task[K]

	for _, d := range t.dependencies {
		if !d.completed {
			pending = append(pending, d)
		}
	}

	return pending
}

// ComputeDuration returns base_duration * 2^(-skill).
func (t *Task[K]) ComputeDuration(skill float64) (sim.VTime, error) {
	return t.ComputeDurationWithBase(skill, DefaultSkillBase)
}

// ComputeDurationWithBase returns base_duration * base^(-skill). The skill
// must be non-negative and the base must be greater than one, otherwise an
// error wrapping ErrInvalidArgument is returned.
func (t *Task[K]) ComputeDurationWithBase(
	skill float64,
	base float64,
) (sim.VTime, error) {
	if skill < 0 || math.IsNaN(skill) {
		return 0, fmt.Errorf("%w: skill must be at least 0, got %v",
			ErrInvalidArgument, skill)
	}

	if !(base > 1) || math.IsInf(base, 1) {
		return 0, fmt.Errorf("%w: skill base must be greater than 1, got %v",
			ErrInvalidArgument, base)
	}

	return t.baseDuration * sim.VTime(math.Pow(base, -skill)), nil
}

// AttemptComplete marks the task as completed. It fails with an error
// wrapping ErrInvalidState if any dependency has not completed. Completing an
// already completed task does nothing.
func (t *Task[K]) AttemptComplete() error {
	if t.completed {
		return nil
	}

	pending := t.PendingDependencies()
	if len(pending) > 0 {
		return fmt.Errorf("%w: task %s waits on %s",
			ErrInvalidState, t, joinNames(pending))
	}

	t.completed = true

	return nil
}

func (t *Task[K]) String() string {
	if t.Name != "" {
		return t.Name
	}

	return fmt.Sprintf("task(%v)", t.kind)
}

func joinNames[K comparable](tasks []*Task[K]) string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.String()
	}

	return strings.Join(names, ", ")
}
