package meeting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teamdash/teamdash/internal/repository"
)

const (
	MinDuration     = 15
	MaxDuration     = 480
	DefaultDuration = 60
)

// Service schedules meetings.
type Service struct {
	repo     Repository
	linkBase string
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a meeting service. Video links are built under linkBase.
func NewService(repo Repository, linkBase string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if linkBase == "" {
		linkBase = "https://meet.teamdash.app"
	}
	return &Service{repo: repo, linkBase: strings.TrimRight(linkBase, "/"), logger: logger, now: time.Now}
}

// CreateRequest describes a meeting to schedule.
type CreateRequest struct {
	ProjectID       string
	Title           string
	Description     string
	StartsAt        time.Time
	DurationMinutes int
	Participants    []string
	CreatedBy       string
}

// Create schedules a meeting and generates its video link.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Meeting, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.Title) == "" || req.StartsAt.IsZero() {
		return nil, ErrInvalidInput
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = DefaultDuration
	}
	if duration < MinDuration || duration > MaxDuration {
		return nil, ErrInvalidInput
	}

	id := uuid.NewString()
	m := &Meeting{
		ID:              id,
		ProjectID:       req.ProjectID,
		Title:           req.Title,
		Description:     req.Description,
		StartsAt:        req.StartsAt,
		DurationMinutes: duration,
		Participants:    req.Participants,
		VideoLink:       fmt.Sprintf("%s/%s", s.linkBase, id),
		CreatedBy:       req.CreatedBy,
		CreatedAt:       s.now(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("creating meeting: %w", err)
	}
	return m, nil
}

// Get returns a meeting by ID.
func (s *Service) Get(ctx context.Context, id string) (*Meeting, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("getting meeting: %w", err)
	}
	return m, nil
}

// ListUpcoming returns meetings that have not ended yet, soonest first.
func (s *Service) ListUpcoming(ctx context.Context, projectID string, limit int) ([]Meeting, error) {
	if projectID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}
	// widest meeting is MaxDuration, so anything started earlier has ended
	from := s.now().Add(-MaxDuration * time.Minute)
	all, err := s.repo.ListUpcoming(ctx, projectID, from, limit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := all[:0]
	for _, m := range all {
		if m.EndsAt().After(now) {
			out = append(out, m)
		}
	}
	return out, nil
}
