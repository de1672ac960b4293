package project

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

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Budget      float64
	StartDate   *time.Time
	EndDate     *time.Time
}

// Create creates a new project. New projects wait for their team.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.OwnerID) == "" {
		return nil, ErrInvalidInput
	}
	if req.Budget < 0 {
		return nil, ErrInvalidInput
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, ErrInvalidInput
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	now := s.now()
	proj := &Project{
		ID:          id,
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Status:      StatusAwaitTeam,
		Budget:      req.Budget,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Get fetches a project by ID. Hidden projects are still returned; callers
// decide visibility.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns project summaries.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]ProjectSummary, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, opts)
}

// UpdateStatus moves a project to the given status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Project, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	proj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proj.Status == status {
		return proj, nil
	}
	proj.Status = status
	proj.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, proj); err != nil {
		return nil, fmt.Errorf("updating project status: %w", err)
	}
	s.logger.Info("project status changed", "project_id", id, "status", status)
	return proj, nil
}

// Archive sets archived_at. Archiving twice keeps the first timestamp.
func (s *Service) Archive(ctx context.Context, id string) (*Project, error) {
	return s.hide(ctx, id, func(p *Project, now time.Time) bool {
		if p.ArchivedAt != nil {
			return false
		}
		p.ArchivedAt = &now
		return true
	})
}

// Delete soft-deletes the project by setting deleted_at.
func (s *Service) Delete(ctx context.Context, id string) (*Project, error) {
	return s.hide(ctx, id, func(p *Project, now time.Time) bool {
		if p.DeletedAt != nil {
			return false
		}
		p.DeletedAt = &now
		return true
	})
}

func (s *Service) hide(ctx context.Context, id string, mark func(*Project, time.Time) bool) (*Project, error) {
	proj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !mark(proj, now) {
		return proj, nil
	}
	proj.UpdatedAt = now
	if err := s.repo.Update(ctx, proj); err != nil {
		return nil, fmt.Errorf("hiding project: %w", err)
	}
	return proj, nil
}
