package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/worksim/sim"
)

// ErrDeadlock is wrapped by every error reporting that the remaining tasks
// can never complete.
var ErrDeadlock = errors.New("deadlock")

// BlockedTask describes a task that cannot make progress.
type BlockedTask struct {
	// Task is the name of the blocked task.
	Task string

	// Worker is the worker holding the task in its queue. It is empty when the
	// task is not in any queue.
	Worker string

	// Behind is the task at the head of the same queue, if the blocked task
	// is not the head itself.
	Behind string

	// Waiting lists the dependencies that are not completed.
	Waiting []string

	// Unassigned is the subset of Waiting that no worker will ever run.
	Unassigned []string
}

func (b BlockedTask) String() string {
	if b.Worker == "" {
		return fmt.Sprintf("%s (not assigned)", b.Task)
	}

	s := fmt.Sprintf("%s@%s", b.Task, b.Worker)
	if b.Behind != "" {
		s += " behind " + b.Behind
	}

	if len(b.Waiting) > 0 {
		s += fmt.Sprintf(" waits on [%s]", strings.Join(b.Waiting, ", "))
	}

	if len(b.Unassigned) > 0 {
		s += fmt.Sprintf(", unassigned [%s]", strings.Join(b.Unassigned, ", "))
	}

	return s
}

// DeadlockError reports the tasks left when the simulation stalls.
type DeadlockError struct {
	At      sim.VTime
	Blocked []BlockedTask
}

func (e *DeadlockError) Error() string {
	blocked := make([]string, len(e.Blocked))
	for i, b := range e.Blocked {
		blocked[i] = b.String()
	}

	return fmt.Sprintf("%v at %v: %s",
		ErrDeadlock, float64(e.At), strings.Join(blocked, "; "))
}

// Unwrap makes errors.Is(err, ErrDeadlock) hold.
func (e *DeadlockError) Unwrap() error {
	return ErrDeadlock
}
