package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/teamdash/teamdash/internal/repository"
)

// Service handles Kanban board operations.
type Service struct {
	tasks  Repository
	search SearchRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new task service. search may be nil.
func NewService(tasks Repository, search SearchRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{tasks: tasks, search: search, logger: logger, now: time.Now}
}

// CreateRequest describes a task creation request.
type CreateRequest struct {
	ProjectID      string
	Title          string
	Description    string
	Assignee       string
	Status         Status
	Priority       Priority
	DueDate        *time.Time
	EstimatedHours *float64
	CreatedBy      string
}

// Create adds a card to the board. Status defaults to todo, priority to medium.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = StatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now := s.now()
	t := &Task{
		ID:             uuid.NewString(),
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		Assignee:       req.Assignee,
		Status:         status,
		Priority:       priority,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return t, nil
}

// Get returns a task by ID.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// Move changes the board column of a task. Any column can be reached from any
// other; moving to the current column is a no-op.
func (s *Service) Move(ctx context.Context, id string, to Status) (*Task, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}

	updated := *current
	updated.Status = to
	updated.UpdatedAt = s.now()
	if err := s.tasks.Update(ctx, &updated, current.UpdatedAt.UnixNano()); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("moving task: %w", err)
	}
	s.logger.Debug("task moved", "task_id", id, "from", current.Status, "to", to)
	return &updated, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

// List returns tasks matching opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Task, error) {
	if opts.ProjectID == "" {
		return nil, ErrInvalidInput
	}
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
	}
	return s.tasks.List(ctx, opts)
}

// Board counts a project's tasks per column. Empty columns are reported as zero.
func (s *Service) Board(ctx context.Context, projectID string) (BoardSummary, error) {
	counts, err := s.tasks.CountByStatus(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	out := make(BoardSummary, len(Statuses))
	for _, st := range Statuses {
		out[st] = counts[st]
	}
	return out, nil
}

// Search runs full-text search.
func (s *Service) Search(ctx context.Context, projectID, query string, opts SearchOptions) ([]SearchResult, error) {
	if s.search == nil {
		return nil, fmt.Errorf("search repository not configured")
	}
	return s.search.Search(ctx, projectID, query, opts)
}
