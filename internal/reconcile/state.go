package reconcile

import (
	"sort"

	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
)

// VisibleAssignment is an assignment in the visible set, tagged with the
// revision that last touched it.
type VisibleAssignment struct {
	Assignment staffing.Assignment `json:"assignment"`
	Revision   uint64              `json:"revision"`
}

// VisibleProject is a parent project in the visible set.
type VisibleProject struct {
	Project  project.Project `json:"project"`
	Revision uint64          `json:"revision"`
}

// State is one candidate's visible set. A State is never mutated once
// committed; reducers return a new value sharing unchanged maps.
type State struct {
	Assignments  map[string]VisibleAssignment `json:"assignments"`
	Projects     map[string]VisibleProject    `json:"projects"`
	Revision     uint64                       `json:"revision"`
	LastDeletion uint64                       `json:"last_deletion"`
}

// NewState returns an empty visible set.
func NewState() State {
	return State{
		Assignments: map[string]VisibleAssignment{},
		Projects:    map[string]VisibleProject{},
	}
}

// Feed is the candidate-facing view of a State: every visible assignment whose
// parent project is visible, grouped under that project.
type Feed struct {
	Revision uint64      `json:"revision"`
	Projects []FeedEntry `json:"projects"`
}

// FeedEntry is one project with its visible assignments.
type FeedEntry struct {
	Project     project.Project       `json:"project"`
	Assignments []staffing.Assignment `json:"assignments"`
}

// Feed builds the view, sorted by project creation then assignment creation.
func (s State) Feed() Feed {
	byProject := make(map[string][]staffing.Assignment)
	for _, va := range s.Assignments {
		if _, ok := s.Projects[va.Assignment.ProjectID]; !ok {
			continue
		}
		byProject[va.Assignment.ProjectID] = append(byProject[va.Assignment.ProjectID], va.Assignment)
	}

	feed := Feed{Revision: s.Revision, Projects: make([]FeedEntry, 0, len(byProject))}
	for pid, seats := range byProject {
		sort.Slice(seats, func(i, j int) bool {
			if seats[i].CreatedAt.Equal(seats[j].CreatedAt) {
				return seats[i].ID < seats[j].ID
			}
			return seats[i].CreatedAt.Before(seats[j].CreatedAt)
		})
		feed.Projects = append(feed.Projects, FeedEntry{Project: s.Projects[pid].Project, Assignments: seats})
	}
	sort.Slice(feed.Projects, func(i, j int) bool {
		a, b := feed.Projects[i].Project, feed.Projects[j].Project
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return feed
}

// AssignmentIDs returns the visible assignment IDs, sorted.
func (s State) AssignmentIDs() []string {
	ids := make([]string, 0, len(s.Assignments))
	for id := range s.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProjectIDs returns the visible project IDs, sorted.
func (s State) ProjectIDs() []string {
	ids := make([]string, 0, len(s.Projects))
	for id := range s.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
