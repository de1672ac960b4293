package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent indicates a change payload that could not be decoded.
	ErrMalformedEvent = errors.New("malformed change event")
	// ErrUnknownTable indicates a change on a table the engine does not follow.
	ErrUnknownTable = errors.New("change on unknown table")
	// ErrNotStarted indicates a session operation that needs Start first.
	ErrNotStarted = errors.New("session not started")
)

// DependencyFetchError reports a failed parent project lookup. The session
// state is left as it was and the event is not retried.
type DependencyFetchError struct {
	ProjectID    string
	AssignmentID string
	Err          error
}

func (e *DependencyFetchError) Error() string {
	return fmt.Sprintf("fetching project %s for assignment %s: %v", e.ProjectID, e.AssignmentID, e.Err)
}

func (e *DependencyFetchError) Unwrap() error { return e.Err }
