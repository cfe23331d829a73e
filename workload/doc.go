// Package workload defines the entities a simulation consumes: tasks, which
// carry a kind, a base duration and prerequisite tasks, and workers, which
// process an ordered queue of tasks at a speed that depends on their skill for
// each task kind.
//
// Kinds are opaque to this package. Callers pick any comparable type for K,
// typically a small string or integer enumeration.
package workload
