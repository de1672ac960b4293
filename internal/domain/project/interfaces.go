package project

import "context"

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, opts ListOptions) ([]ProjectSummary, error)
	Update(ctx context.Context, proj *Project) error
}

// ListOptions filters project listings. Hidden projects are never listed.
type ListOptions struct {
	OwnerID string
	Status  Status
}
