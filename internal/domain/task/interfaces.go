package task

import "context"

// Repository provides persistence operations for tasks.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// Update writes t only if the stored updated_at still equals expected.
	Update(ctx context.Context, t *Task, expected int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]Task, error)
	CountByStatus(ctx context.Context, projectID string) (BoardSummary, error)
}

// SearchRepository provides full-text search over task titles and descriptions.
type SearchRepository interface {
	Search(ctx context.Context, projectID, query string, opts SearchOptions) ([]SearchResult, error)
}
