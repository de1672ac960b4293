package notification

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

const defaultListLimit = 50

// Service handles notification operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest describes a notification to create.
type CreateRequest struct {
	CandidateID  string
	AssignmentID *string
	Type         Type
	Payload      map[string]any
}

// Notify creates an unread notification.
func (s *Service) Notify(ctx context.Context, req CreateRequest) (*Notification, error) {
	if strings.TrimSpace(req.CandidateID) == "" || req.Type == "" {
		return nil, ErrInvalidInput
	}
	now := time.Now()
	n := &Notification{
		ID:           uuid.NewString(),
		CandidateID:  req.CandidateID,
		AssignmentID: req.AssignmentID,
		Type:         req.Type,
		Status:       StatusUnread,
		Payload:      req.Payload,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return n, nil
}

// List returns a candidate's notifications, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Notification, error) {
	if opts.CandidateID == "" {
		return nil, ErrInvalidInput
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	return s.repo.List(ctx, opts)
}

// MarkRead moves an unread notification to read. Read notifications are left alone.
func (s *Service) MarkRead(ctx context.Context, candidateID, id string) (*Notification, error) {
	return s.transition(ctx, candidateID, id, StatusRead)
}

// Archive moves a notification to its terminal state.
func (s *Service) Archive(ctx context.Context, candidateID, id string) (*Notification, error) {
	return s.transition(ctx, candidateID, id, StatusArchived)
}

// ArchiveForAssignment archives every open notification about a seat except the
// one addressed to keepCandidateID. Used once the seat is filled.
func (s *Service) ArchiveForAssignment(ctx context.Context, assignmentID, keepCandidateID string) error {
	n, err := s.repo.ArchiveForAssignment(ctx, assignmentID, keepCandidateID)
	if err != nil {
		return fmt.Errorf("archiving seat notifications: %w", err)
	}
	s.logger.Debug("archived seat notifications", "assignment_id", assignmentID, "count", n)
	return nil
}

// ArchiveForCandidate archives the candidate's own notifications about a seat.
func (s *Service) ArchiveForCandidate(ctx context.Context, assignmentID, candidateID string) error {
	if _, err := s.repo.ArchiveForCandidate(ctx, assignmentID, candidateID); err != nil {
		return fmt.Errorf("archiving candidate notifications: %w", err)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, candidateID, id string, to Status) (*Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	if n.CandidateID != candidateID {
		return nil, ErrNotificationNotFound
	}
	if n.Status == StatusArchived {
		if to == StatusArchived {
			return n, nil
		}
		return nil, ErrArchived
	}
	if n.Status == to {
		return n, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("updating notification: %w", err)
	}
	n.Status = to
	n.UpdatedAt = time.Now()
	return n, nil
}
