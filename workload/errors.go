package workload

import "errors"

var (
	// ErrInvalidArgument is returned when an argument is outside its domain,
	// for example a negative skill.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState is returned when a state transition is attempted while
	// its precondition does not hold, for example completing a task whose
	// dependencies are not completed.
	ErrInvalidState = errors.New("invalid state")
)
