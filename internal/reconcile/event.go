package reconcile

import (
	"encoding/json"
	"fmt"

	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/realtime"
)

// Tables the engine follows.
const (
	AssignmentsTable = "assignments"
	ProjectsTable    = "projects"
)

// Event is a decoded row change. The set of implementations is closed.
type Event interface {
	isEvent()
}

// AssignmentEvent is a change on the assignments table. New is nil for
// deletes; Old is nil for inserts and may be nil for updates when the source
// only sent the new row.
type AssignmentEvent struct {
	Op  realtime.Op
	New *staffing.Assignment
	Old *staffing.Assignment
}

// ProjectEvent is a change on the projects table.
type ProjectEvent struct {
	Op  realtime.Op
	New *project.Project
	Old *project.Project
}

func (AssignmentEvent) isEvent() {}
func (ProjectEvent) isEvent()    {}

// ID returns the assignment the event is about.
func (e AssignmentEvent) ID() string {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return ""
}

// ID returns the project the event is about.
func (e ProjectEvent) ID() string {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return ""
}

// Decode turns a raw bus change into a typed event, rejecting payloads the
// reducer cannot act on.
func Decode(c realtime.Change) (Event, error) {
	switch c.Op {
	case realtime.OpInsert, realtime.OpUpdate, realtime.OpDelete:
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrMalformedEvent, c.Op)
	}

	switch c.Table {
	case AssignmentsTable:
		newRow, err := decodeRow[staffing.Assignment](c.New)
		if err != nil {
			return nil, err
		}
		oldRow, err := decodeRow[staffing.Assignment](c.Old)
		if err != nil {
			return nil, err
		}
		if err := checkShape(c.Op, newRow != nil, oldRow != nil); err != nil {
			return nil, err
		}
		if newRow != nil {
			if newRow.ID == "" || newRow.ProjectID == "" {
				return nil, fmt.Errorf("%w: assignment row without id or project_id", ErrMalformedEvent)
			}
			if !newRow.BookingStatus.Valid() {
				return nil, fmt.Errorf("%w: booking status %q", ErrMalformedEvent, newRow.BookingStatus)
			}
		}
		if oldRow != nil && oldRow.ID == "" {
			return nil, fmt.Errorf("%w: old assignment row without id", ErrMalformedEvent)
		}
		// a key-only old image carries no state to classify against
		if c.Op == realtime.OpUpdate && oldRow != nil && oldRow.BookingStatus == "" {
			oldRow = nil
		}
		return AssignmentEvent{Op: c.Op, New: newRow, Old: oldRow}, nil

	case ProjectsTable:
		newRow, err := decodeRow[project.Project](c.New)
		if err != nil {
			return nil, err
		}
		oldRow, err := decodeRow[project.Project](c.Old)
		if err != nil {
			return nil, err
		}
		if err := checkShape(c.Op, newRow != nil, oldRow != nil); err != nil {
			return nil, err
		}
		for _, p := range []*project.Project{newRow, oldRow} {
			if p != nil && p.ID == "" {
				return nil, fmt.Errorf("%w: project row without id", ErrMalformedEvent)
			}
		}
		return ProjectEvent{Op: c.Op, New: newRow, Old: oldRow}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownTable, c.Table)
}

func checkShape(op realtime.Op, hasNew, hasOld bool) error {
	switch op {
	case realtime.OpInsert, realtime.OpUpdate:
		if !hasNew {
			return fmt.Errorf("%w: %s without new row", ErrMalformedEvent, op)
		}
	case realtime.OpDelete:
		if !hasOld {
			return fmt.Errorf("%w: DELETE without old row", ErrMalformedEvent)
		}
	}
	return nil
}

func decodeRow[T any](raw json.RawMessage) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var row T
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &row, nil
}
