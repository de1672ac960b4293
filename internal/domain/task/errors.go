package task

import "errors"

var (
	// ErrTaskNotFound indicates the task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidInput indicates invalid input for task operations.
	ErrInvalidInput = errors.New("invalid task input")
	// ErrInvalidStatus indicates an unknown board column.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrInvalidPriority indicates an unknown priority.
	ErrInvalidPriority = errors.New("invalid task priority")
	// ErrConflict indicates the task changed since it was read.
	ErrConflict = errors.New("task modified concurrently")
)
