package reconcile

import (
	"maps"
	"time"

	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/realtime"
)

// Action is what a reduction did to the visible set.
type Action string

const (
	ActionNone          Action = "none"
	ActionAdd           Action = "add"
	ActionUpdate        Action = "update"
	ActionRemove        Action = "remove"
	ActionProjectAdd    Action = "project_add"
	ActionProjectUpdate Action = "project_update"
	ActionProjectRemove Action = "project_remove"
)

// Outcome describes a reduction. When NeedsProject is set the event could
// not be applied without the parent project and the returned state is the
// input state.
type Outcome struct {
	Action       Action
	Changed      bool
	NeedsProject string
}

// Reduce applies ev to s for the candidate identified by id. parent is the
// assignment's parent project when the caller fetched it; it is ignored for
// project events.
func Reduce(s State, ev Event, id staffing.Identity, parent *project.Project) (State, Outcome) {
	switch e := ev.(type) {
	case AssignmentEvent:
		return reduceAssignment(s, e, id, parent)
	case ProjectEvent:
		return reduceProject(s, e)
	}
	return s, Outcome{Action: ActionNone}
}

// classification of an UPDATE by whether the row matched before and after
type transition int

const (
	stayedIn transition = iota
	left
	entered
	stayedOut
)

func classify(was, still bool) transition {
	switch {
	case was && still:
		return stayedIn
	case was:
		return left
	case still:
		return entered
	}
	return stayedOut
}

// isAcceptance reports a search seat being accepted by the candidate.
func isAcceptance(e AssignmentEvent, id staffing.Identity) bool {
	return e.Old != nil && e.New != nil &&
		e.Old.BookingStatus == staffing.BookingSearch &&
		e.New.BookingStatus == staffing.BookingAccepted &&
		e.New.CandidateID != nil && *e.New.CandidateID == id.CandidateID
}

func reduceAssignment(s State, e AssignmentEvent, id staffing.Identity, parent *project.Project) (State, Outcome) {
	switch e.Op {
	case realtime.OpInsert:
		if !staffing.Matches(e.New, id) {
			return s, Outcome{Action: ActionNone}
		}
		if _, ok := s.Assignments[e.New.ID]; ok {
			return s, Outcome{Action: ActionNone}
		}
		return upsert(s, e.New, ActionAdd, parent)

	case realtime.OpDelete:
		return remove(s, e.Old.ID, true)

	case realtime.OpUpdate:
		existing, present := s.Assignments[e.New.ID]
		if isAcceptance(e, id) {
			return upsert(s, e.New, ActionUpdate, parent)
		}

		was := present
		if e.Old != nil {
			was = staffing.Matches(e.Old, id)
		}
		switch classify(was, staffing.Matches(e.New, id)) {
		case stayedIn:
			if present && existing.Assignment.Equal(e.New) {
				return s, Outcome{Action: ActionNone}
			}
			return upsert(s, e.New, ActionUpdate, parent)
		case left:
			return remove(s, e.New.ID, false)
		case entered:
			if present {
				return s, Outcome{Action: ActionNone}
			}
			return upsert(s, e.New, ActionAdd, parent)
		}
		// a row that never matched can still be cached when an earlier event
		// was dropped; evict it rather than ignore the update
		if present && !staffing.Matches(e.New, id) {
			return remove(s, e.New.ID, false)
		}
	}
	return s, Outcome{Action: ActionNone}
}

// upsert stores a and makes sure its parent project is visible.
func upsert(s State, a *staffing.Assignment, action Action, parent *project.Project) (State, Outcome) {
	_, cached := s.Projects[a.ProjectID]
	if !cached && parent == nil {
		return s, Outcome{Action: action, NeedsProject: a.ProjectID}
	}

	next := s
	next.Revision = s.Revision + 1
	next.Assignments = maps.Clone(s.Assignments)
	next.Assignments[a.ID] = VisibleAssignment{Assignment: *a.Clone(), Revision: next.Revision}

	next.Projects = maps.Clone(s.Projects)
	if cached {
		vp := next.Projects[a.ProjectID]
		vp.Revision = next.Revision
		next.Projects[a.ProjectID] = vp
	} else if parent.ID == a.ProjectID && !parent.Hidden() {
		next.Projects[a.ProjectID] = VisibleProject{Project: *parent, Revision: next.Revision}
	}
	return next, Outcome{Action: action, Changed: true}
}

// remove drops an assignment and tags its cached parent. A parent missing
// from the cache is not fetched: a removal cannot make a project visible.
// Deletions of the row itself also advance LastDeletion.
func remove(s State, assignmentID string, deleted bool) (State, Outcome) {
	existing, ok := s.Assignments[assignmentID]
	if !ok {
		return s, Outcome{Action: ActionNone}
	}

	next := s
	next.Revision = s.Revision + 1
	next.Assignments = maps.Clone(s.Assignments)
	delete(next.Assignments, assignmentID)
	if deleted {
		next.LastDeletion = next.Revision
	}
	if vp, ok := s.Projects[existing.Assignment.ProjectID]; ok {
		next.Projects = maps.Clone(s.Projects)
		vp.Revision = next.Revision
		next.Projects[existing.Assignment.ProjectID] = vp
	}
	return next, Outcome{Action: ActionRemove, Changed: true}
}

func reduceProject(s State, e ProjectEvent) (State, Outcome) {
	pid := e.ID()
	cached, present := s.Projects[pid]

	if e.Op == realtime.OpDelete || e.New.Hidden() {
		if !present {
			return s, Outcome{Action: ActionNone}
		}
		next := s
		next.Revision = s.Revision + 1
		next.LastDeletion = next.Revision
		next.Projects = maps.Clone(s.Projects)
		delete(next.Projects, pid)
		return next, Outcome{Action: ActionProjectRemove, Changed: true}
	}

	action := ActionProjectUpdate
	if present {
		if projectEqual(&cached.Project, e.New) {
			return s, Outcome{Action: ActionNone}
		}
	} else {
		// only projects behind a visible assignment belong in the set
		if !referenced(s, pid) {
			return s, Outcome{Action: ActionNone}
		}
		action = ActionProjectAdd
	}

	next := s
	next.Revision = s.Revision + 1
	next.Projects = maps.Clone(s.Projects)
	next.Projects[pid] = VisibleProject{Project: *e.New, Revision: next.Revision}
	return next, Outcome{Action: action, Changed: true}
}

func referenced(s State, projectID string) bool {
	for _, va := range s.Assignments {
		if va.Assignment.ProjectID == projectID {
			return true
		}
	}
	return false
}

func projectEqual(a, b *project.Project) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Status == b.Status &&
		a.Budget == b.Budget &&
		a.OwnerID == b.OwnerID &&
		timePtrEqual(a.StartDate, b.StartDate) &&
		timePtrEqual(a.EndDate, b.EndDate) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
