package meeting

import (
	"context"
	"time"
)

// Repository provides persistence for meetings.
type Repository interface {
	Create(ctx context.Context, m *Meeting) error
	Get(ctx context.Context, id string) (*Meeting, error)
	ListUpcoming(ctx context.Context, projectID string, from time.Time, limit int) ([]Meeting, error)
}
