package notification

import "context"

// Repository provides persistence for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context, opts ListOptions) ([]Notification, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	ArchiveForAssignment(ctx context.Context, assignmentID, exceptCandidateID string) (int, error)
	ArchiveForCandidate(ctx context.Context, assignmentID, candidateID string) (int, error)
}

// ListOptions filters notification listings.
type ListOptions struct {
	CandidateID string
	Status      *Status
	Limit       int
}
