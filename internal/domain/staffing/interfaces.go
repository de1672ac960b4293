package staffing

import (
	"context"

	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
)

// AssignmentRepository provides persistence for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	Get(ctx context.Context, id string) (*Assignment, error)
	// Update writes a only if the stored booking status still equals expected.
	Update(ctx context.Context, a *Assignment, expected BookingStatus) error
	Delete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID string) ([]Assignment, error)
	ListForCandidate(ctx context.Context, id Identity) ([]Assignment, error)
}

// CandidateRepository provides persistence for candidate profiles.
type CandidateRepository interface {
	Create(ctx context.Context, c *Candidate) error
	Get(ctx context.Context, id string) (*Candidate, error)
	FindAvailable(ctx context.Context, profileID string, seniority Seniority) ([]Candidate, error)
	ListTeam(ctx context.Context, projectID string) ([]TeamMember, error)
}

// Notifier delivers notifications to candidates.
type Notifier interface {
	Notify(ctx context.Context, req notification.CreateRequest) (*notification.Notification, error)
	ArchiveForAssignment(ctx context.Context, assignmentID, keepCandidateID string) error
	ArchiveForCandidate(ctx context.Context, assignmentID, candidateID string) error
}

// ProjectStore is the slice of the project service staffing needs.
type ProjectStore interface {
	Get(ctx context.Context, id string) (*project.Project, error)
	UpdateStatus(ctx context.Context, id string, status project.Status) (*project.Project, error)
}

// ActivityLogger records audit entries.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
