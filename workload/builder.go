package workload

import (
	"fmt"
	"maps"
)

// WorkerBuilder can build workers.
type WorkerBuilder[K comparable] struct {
	skills        map[K]float64
	skillBase     float64
	recordHistory bool
}

// MakeWorkerBuilder creates a WorkerBuilder with default parameters.
func MakeWorkerBuilder[K comparable]() WorkerBuilder[K] {
	return WorkerBuilder[K]{
		skillBase: DefaultSkillBase,
	}
}

// WithSkill sets the skill of the worker for one kind of task.
func (b WorkerBuilder[K]) WithSkill(kind K, skill float64) WorkerBuilder[K] {
	skills := make(map[K]float64, len(b.skills)+1)
	maps.Copy(skills, b.skills)
	skills[kind] = skill
	b.skills = skills

	return b
}

// WithSkills replaces the whole skill map.
func (b WorkerBuilder[K]) WithSkills(skills map[K]float64) WorkerBuilder[K] {
	b.skills = maps.Clone(skills)
	return b
}

// WithSkillBase sets the base of the skill curve. A worker with skill s takes
// base^(-s) times the base duration of a task.
func (b WorkerBuilder[K]) WithSkillBase(base float64) WorkerBuilder[K] {
	b.skillBase = base
	return b
}

// WithHistory makes the worker keep a log of the tasks it completes.
func (b WorkerBuilder[K]) WithHistory() WorkerBuilder[K] {
	b.recordHistory = true
	return b
}

func (b WorkerBuilder[K]) parametersMustBeValid() {
	if !(b.skillBase > 1) {
		panic(fmt.Sprintf("skill base must be greater than 1, got %v",
			b.skillBase))
	}
}

// Build creates a worker with the given name.
func (b WorkerBuilder[K]) Build(name string) *Worker[K] {
	b.parametersMustBeValid()

	skills := maps.Clone(b.skills)
	if skills == nil {
		skills = make(map[K]float64)
	}

	return &Worker[K]{
		name:          name,
		skills:        skills,
		skillBase:     b.skillBase,
		recordHistory: b.recordHistory,
	}
}
