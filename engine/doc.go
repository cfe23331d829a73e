// Package engine evaluates a fixed assignment of tasks to workers by running a
// discrete-event simulation and reporting the makespan.
//
// Every worker processes its own queue in order, one task at a time. The
// engine keeps a single clock and a global queue of completion events. After
// every resolved event it gives each free worker the chance to start its next
// task, so dependent tasks on other workers start at the exact instant their
// last dependency completes.
package engine
