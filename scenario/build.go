package scenario

import (
	"github.com/sarchlab/worksim/sim"
	"github.com/sarchlab/worksim/workload"
)

// Build validates the scenario and creates its workers, with their queues
// filled, and the universe of tasks in declaration order.
func (s *Scenario) Build() (
	[]*workload.Worker[string],
	[]*workload.Task[string],
	error,
) {
	p, errValidation := s.validate()
	if errValidation != nil {
		return nil, nil, errValidation
	}

	tasks := make([]*workload.Task[string], len(s.Tasks))
	for _, i := range p.order {
		spec := s.Tasks[i]

		deps := make([]*workload.Task[string], len(spec.DependsOn))
		for j, dep := range spec.DependsOn {
			deps[j] = tasks[p.taskIndex[dep]]
		}

		tasks[i] = workload.NewTask(
			spec.Name, spec.Kind, sim.VTime(spec.Duration), deps...)
	}

	builder := workload.MakeWorkerBuilder[string]()
	if s.SkillBase != 0 {
		builder = builder.WithSkillBase(s.SkillBase)
	}

	workers := make([]*workload.Worker[string], len(s.Workers))
	for i, spec := range s.Workers {
		b := builder.WithSkills(spec.Skills)
		if spec.History {
			b = b.WithHistory()
		}

		workers[i] = b.Build(spec.Name)

		for _, name := range spec.Queue {
			workers[i].Enqueue(tasks[p.taskIndex[name]])
		}
	}

	return workers, tasks, nil
}
