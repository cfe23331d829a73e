package scenario

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
	"github.com/gammazero/deque"
)

const callerValidate = "Validate"

// Issues reported inside goerrors.ErrInvalidInput.
var (
	ErrDuplicateName   = errors.New("duplicate name")
	ErrUnknownTask     = errors.New("unknown task")
	ErrAssignedTwice   = errors.New("task assigned more than once")
	ErrUnassigned      = errors.New("task not assigned to any worker")
	ErrDependencyCycle = errors.New("dependency cycle")
	ErrQueueOrder      = errors.New("queue order conflicts with dependencies")
)

// plan is a validated scenario, indexed for building.
type plan struct {
	taskIndex map[string]int
	order     []int
}

// Validate checks that every task is well formed, that every task is assigned
// to exactly one worker exactly once, that dependencies form no cycle, and
// that no worker queue holds a task ahead of something it waits for. A
// scenario that passes always runs to completion.
func (s *Scenario) Validate() error {
	_, err := s.validate()

	return err
}

func (s *Scenario) validate() (*plan, error) {
	if s == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: callerValidate,
				Issue: goerrors.ErrNilInput{
					InputName: "Scenario",
				},
			}
	}

	if _, errValidation := govalidator.ValidateStruct(s); errValidation != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: serviceName,
				Caller:      callerValidate,
				Issue:       errValidation,
			}
	}

	if s.SkillBase != 0 && !(s.SkillBase > 1) {
		return nil,
			goerrors.ErrInvalidInput{
				Caller:     callerValidate,
				InputName:  "skill_base",
				InputValue: s.SkillBase,
				Issue:      errors.New("must be greater than 1"),
			}
	}

	taskIndex, errTasks := s.indexTasks()
	if errTasks != nil {
		return nil, errTasks
	}

	if errWorkers := s.checkAssignment(taskIndex); errWorkers != nil {
		return nil, errWorkers
	}

	deps := s.dependencyGraph(taskIndex)

	order, cycle := deps.topologicalOrder()
	if cycle != nil {
		return nil,
			goerrors.ErrInvalidInput{
				Caller:     callerValidate,
				InputName:  "depends_on",
				InputValue: deps.describe(cycle),
				Issue:      ErrDependencyCycle,
			}
	}

	withQueues := s.dependencyGraph(taskIndex)
	s.addQueueEdges(withQueues, taskIndex)

	if _, cycle := withQueues.topologicalOrder(); cycle != nil {
		return nil,
			goerrors.ErrInvalidInput{
				Caller:     callerValidate,
				InputName:  "queue",
				InputValue: withQueues.describe(cycle),
				Issue:      ErrQueueOrder,
			}
	}

	return &plan{
			taskIndex: taskIndex,
			order:     order,
		},
		nil
}

func (s *Scenario) indexTasks() (map[string]int, error) {
	taskIndex := make(map[string]int, len(s.Tasks))

	for i, task := range s.Tasks {
		if _, exists := taskIndex[task.Name]; exists {
			return nil,
				goerrors.ErrInvalidInput{
					Caller:     callerValidate,
					InputName:  "tasks",
					InputValue: task.Name,
					Issue:      ErrDuplicateName,
				}
		}

		if !(task.Duration >= 0) {
			return nil,
				goerrors.ErrValidation{
					Caller: callerValidate,
					Issue: goerrors.ErrNegativeInput{
						InputName: "duration of task " + task.Name,
					},
				}
		}

		taskIndex[task.Name] = i
	}

	for _, task := range s.Tasks {
		for _, dep := range task.DependsOn {
			if _, exists := taskIndex[dep]; !exists {
				return nil,
					goerrors.ErrInvalidInput{
						Caller:     callerValidate,
						InputName:  "depends_on of task " + task.Name,
						InputValue: dep,
						Issue:      ErrUnknownTask,
					}
			}
		}
	}

	return taskIndex, nil
}

func (s *Scenario) checkAssignment(taskIndex map[string]int) error {
	workerNames := make(map[string]bool, len(s.Workers))
	assignedTo := make(map[string]string, len(s.Tasks))

	for _, worker := range s.Workers {
		if workerNames[worker.Name] {
			return goerrors.ErrInvalidInput{
				Caller:     callerValidate,
				InputName:  "workers",
				InputValue: worker.Name,
				Issue:      ErrDuplicateName,
			}
		}

		workerNames[worker.Name] = true

		for kind, skill := range worker.Skills {
			if !(skill >= 0) {
				return goerrors.ErrValidation{
					Caller: callerValidate,
					Issue: goerrors.ErrNegativeInput{
						InputName: fmt.Sprintf(
							"skill %s of worker %s", kind, worker.Name),
					},
				}
			}
		}

		for _, name := range worker.Queue {
			if _, exists := taskIndex[name]; !exists {
				return goerrors.ErrInvalidInput{
					Caller:     callerValidate,
					InputName:  "queue of worker " + worker.Name,
					InputValue: name,
					Issue:      ErrUnknownTask,
				}
			}

			if previous, assigned := assignedTo[name]; assigned {
				return goerrors.ErrInvalidInput{
					Caller:     callerValidate,
					InputName:  "queue of worker " + worker.Name,
					InputValue: name,
					Issue: fmt.Errorf("%w: already queued on %s",
						ErrAssignedTwice, previous),
				}
			}

			assignedTo[name] = worker.Name
		}
	}

	for _, task := range s.Tasks {
		if _, assigned := assignedTo[task.Name]; !assigned {
			return goerrors.ErrInvalidInput{
				Caller:     callerValidate,
				InputName:  "tasks",
				InputValue: task.Name,
				Issue:      ErrUnassigned,
			}
		}
	}

	return nil
}

// graph holds, for every task, the tasks that must finish before it starts.
type graph struct {
	names   []string
	waitFor [][]int
}

func (s *Scenario) dependencyGraph(taskIndex map[string]int) *graph {
	g := &graph{
		names:   make([]string, len(s.Tasks)),
		waitFor: make([][]int, len(s.Tasks)),
	}

	for i, task := range s.Tasks {
		g.names[i] = task.Name

		for _, dep := range task.DependsOn {
			g.waitFor[i] = append(g.waitFor[i], taskIndex[dep])
		}
	}

	return g
}

func (s *Scenario) addQueueEdges(g *graph, taskIndex map[string]int) {
	for _, worker := range s.Workers {
		for i := 1; i < len(worker.Queue); i++ {
			current := taskIndex[worker.Queue[i]]
			previous := taskIndex[worker.Queue[i-1]]
			g.waitFor[current] = append(g.waitFor[current], previous)
		}
	}
}

// topologicalOrder runs Kahn's algorithm. Ties are broken by declaration
// order, so the result only depends on the scenario. If the graph has a
// cycle, the order is nil and the cycle is returned instead.
func (g *graph) topologicalOrder() (order []int, cycle []int) {
	n := len(g.names)
	pending := make([]int, n)
	unblocks := make([][]int, n)

	for node, deps := range g.waitFor {
		pending[node] = len(deps)

		for _, dep := range deps {
			unblocks[dep] = append(unblocks[dep], node)
		}
	}

	var ready deque.Deque[int]
	for node := range n {
		if pending[node] == 0 {
			ready.PushBack(node)
		}
	}

	order = make([]int, 0, n)
	for ready.Len() > 0 {
		node := ready.PopFront()
		order = append(order, node)

		for _, next := range unblocks[node] {
			pending[next]--
			if pending[next] == 0 {
				ready.PushBack(next)
			}
		}
	}

	if len(order) == n {
		return order, nil
	}

	return nil, g.findCycle(pending)
}

// findCycle walks back from the first node left by Kahn's algorithm. Every
// such node waits for at least one other leftover node, so the walk must
// revisit a node.
func (g *graph) findCycle(pending []int) []int {
	start := -1
	for node, p := range pending {
		if p > 0 {
			start = node
			break
		}
	}

	visitedAt := make(map[int]int)
	var path []int

	for node := start; ; {
		if at, seen := visitedAt[node]; seen {
			return append(path[at:], node)
		}

		visitedAt[node] = len(path)
		path = append(path, node)

		for _, dep := range g.waitFor[node] {
			if pending[dep] > 0 {
				node = dep
				break
			}
		}
	}
}

func (g *graph) describe(cycle []int) string {
	names := make([]string, len(cycle))
	for i, node := range cycle {
		names[i] = g.names[node]
	}

	return strings.Join(names, " waits for ")
}
