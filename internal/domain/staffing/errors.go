package staffing

import "errors"

var (
	// ErrAssignmentNotFound indicates the assignment doesn't exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrCandidateNotFound indicates the candidate doesn't exist.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrInvalidInput indicates invalid staffing input.
	ErrInvalidInput = errors.New("invalid staffing input")
	// ErrInvalidTransition indicates a booking status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid booking status transition")
	// ErrNotEligible indicates the candidate does not match the seat.
	ErrNotEligible = errors.New("candidate not eligible for assignment")
	// ErrSeatTaken indicates another candidate accepted the seat first.
	ErrSeatTaken = errors.New("assignment already taken")
)
