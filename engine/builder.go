package engine

import (
	"github.com/sarchlab/worksim/sim"
	"go.uber.org/zap"
)

// Builder can build engines for tasks whose kinds are of type K.
type Builder[K comparable] struct {
	name    string
	logger  *zap.Logger
	verbose bool
	hooks   []sim.Hook
}

// MakeBuilder creates a new builder with default parameters.
func MakeBuilder[K comparable]() Builder[K] {
	return Builder[K]{
		name: "Engine",
	}
}

// WithName sets the name that the engine reports to tracers.
func (b Builder[K]) WithName(name string) Builder[K] {
	b.name = name
	return b
}

// WithLogger sets the logger. Without one, the engine logs nothing.
func (b Builder[K]) WithLogger(logger *zap.Logger) Builder[K] {
	b.logger = logger
	return b
}

// WithVerbose makes the engine log initial queues and every completion.
func (b Builder[K]) WithVerbose() Builder[K] {
	b.verbose = true
	return b
}

// WithHook attaches a hook to the engine being built.
func (b Builder[K]) WithHook(hook sim.Hook) Builder[K] {
	hooks := make([]sim.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, hook)

	return b
}

func (b Builder[K]) parametersMustBeValid() {
	if b.name == "" {
		panic("engine name must not be empty")
	}
}

// Build creates the engine.
func (b Builder[K]) Build() *Engine[K] {
	b.parametersMustBeValid()

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine[K]{
		HookableBase: sim.NewHookableBase(),
		name:         b.name,
		logger:       logger.Named("engine"),
		verbose:      b.verbose,
	}

	for _, h := range b.hooks {
		e.AcceptHook(h)
	}

	return e
}
