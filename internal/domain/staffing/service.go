package staffing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/repository"
)

// Service handles seat lifecycle operations.
type Service struct {
	assignments AssignmentRepository
	candidates  CandidateRepository
	projects    ProjectStore
	notifier    Notifier
	audit       ActivityLogger
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new staffing service. audit may be nil.
func NewService(assignments AssignmentRepository, candidates CandidateRepository, projects ProjectStore, notifier Notifier, audit ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		assignments: assignments,
		candidates:  candidates,
		projects:    projects,
		notifier:    notifier,
		audit:       audit,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateAssignmentRequest defines seat creation inputs.
type CreateAssignmentRequest struct {
	ProjectID  string
	ProfileID  string
	Seniority  Seniority
	Languages  []string
	Expertises []string
}

// CreateAssignment creates a draft seat on a project.
func (s *Service) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*Assignment, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrInvalidInput
	}
	if err := ValidateRequirements(req.ProfileID, req.Seniority); err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	now := s.now()
	a := &Assignment{
		ID:            uuid.NewString(),
		ProjectID:     req.ProjectID,
		ProfileID:     req.ProfileID,
		Seniority:     req.Seniority,
		Languages:     normalizeSet(req.Languages),
		Expertises:    normalizeSet(req.Expertises),
		BookingStatus: BookingDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating assignment: %w", err)
	}
	s.record(ctx, a, "", activity.TypeSeatCreated, "seat created")
	return a, nil
}

// Get fetches an assignment by ID.
func (s *Service) Get(ctx context.Context, id string) (*Assignment, error) {
	a, err := s.assignments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// Publish opens a seat to the marketplace and notifies every available
// candidate that matches it. Notification failures are logged, not returned.
func (s *Service) Publish(ctx context.Context, id string) (*Assignment, error) {
	a, err := s.move(ctx, id, BookingSearch, func(a *Assignment) {
		a.CandidateID = nil
	})
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidates.FindAvailable(ctx, a.ProfileID, a.Seniority)
	if err != nil {
		s.logger.Warn("finding candidates for seat failed", "assignment_id", a.ID, "error", err)
		return a, nil
	}
	for _, c := range candidates {
		_, err := s.notifier.Notify(ctx, notification.CreateRequest{
			CandidateID:  c.ID,
			AssignmentID: &a.ID,
			Type:         notification.TypeOpportunity,
			Payload: map[string]any{
				"project_id": a.ProjectID,
				"profile_id": a.ProfileID,
				"seniority":  string(a.Seniority),
			},
		})
		if err != nil {
			s.logger.Warn("notifying candidate failed", "assignment_id", a.ID, "candidate_id", c.ID, "error", err)
		}
	}
	s.record(ctx, a, "", activity.TypeSeatPublished, fmt.Sprintf("seat published to %d candidates", len(candidates)))
	return a, nil
}

// Accept binds the seat to the candidate. Only one concurrent acceptance wins;
// the others get ErrSeatTaken.
func (s *Service) Accept(ctx context.Context, id string, candidate Identity) (*Assignment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.BookingStatus == BookingAccepted {
		if a.CandidateID != nil && *a.CandidateID == candidate.CandidateID {
			return a, nil
		}
		return nil, ErrSeatTaken
	}
	if err := ValidateTransition(a.BookingStatus, BookingAccepted); err != nil {
		return nil, err
	}
	if !Matches(a, candidate) {
		return nil, ErrNotEligible
	}

	cid := candidate.CandidateID
	a.CandidateID = &cid
	a.BookingStatus = BookingAccepted
	a.UpdatedAt = s.now()
	if err := s.assignments.Update(ctx, a, BookingSearch); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSeatTaken
		}
		return nil, fmt.Errorf("accepting assignment: %w", err)
	}

	if err := s.notifier.ArchiveForAssignment(ctx, a.ID, cid); err != nil {
		s.logger.Warn("archiving seat notifications failed", "assignment_id", a.ID, "error", err)
	}
	s.record(ctx, a, cid, activity.TypeSeatAccepted, "seat accepted")
	s.advanceProject(ctx, a.ProjectID)
	return a, nil
}

// Decline refuses a seat. A bound seat is released and marked declined; on an
// open seat only the candidate's own notification is archived.
func (s *Service) Decline(ctx context.Context, id string, candidate Identity) (*Assignment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Matches(a, candidate) {
		return nil, ErrNotEligible
	}

	if !a.Bound() {
		if err := s.notifier.ArchiveForCandidate(ctx, a.ID, candidate.CandidateID); err != nil {
			s.logger.Warn("archiving declined notification failed", "assignment_id", a.ID, "error", err)
		}
		s.record(ctx, a, candidate.CandidateID, activity.TypeSeatDeclined, "opportunity declined")
		return a, nil
	}

	prev := a.BookingStatus
	if err := ValidateTransition(prev, BookingDeclined); err != nil {
		return nil, err
	}
	a.BookingStatus = BookingDeclined
	a.CandidateID = nil
	a.UpdatedAt = s.now()
	if err := s.assignments.Update(ctx, a, prev); err != nil {
		return nil, s.mapWriteErr("declining assignment", err)
	}
	s.record(ctx, a, candidate.CandidateID, activity.TypeSeatDeclined, "seat released")
	return a, nil
}

// Expire closes an open seat nobody took.
func (s *Service) Expire(ctx context.Context, id string) (*Assignment, error) {
	a, err := s.move(ctx, id, BookingExpired, nil)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.ArchiveForAssignment(ctx, a.ID, ""); err != nil {
		s.logger.Warn("archiving expired seat notifications failed", "assignment_id", a.ID, "error", err)
	}
	s.record(ctx, a, "", activity.TypeSeatExpired, "seat expired")
	return a, nil
}

// RequirementsUpdate carries new seat requirements. Nil fields are unchanged.
type RequirementsUpdate struct {
	ProfileID  *string
	Seniority  *Seniority
	Languages  []string
	Expertises []string
}

// UpdateRequirements changes what a seat asks for. A bound seat goes back to
// recherche and its candidate is told the seat changed.
func (s *Service) UpdateRequirements(ctx context.Context, id string, upd RequirementsUpdate) (*Assignment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := a.Clone()
	if upd.ProfileID != nil {
		next.ProfileID = *upd.ProfileID
	}
	if upd.Seniority != nil {
		next.Seniority = *upd.Seniority
	}
	if upd.Languages != nil {
		next.Languages = normalizeSet(upd.Languages)
	}
	if upd.Expertises != nil {
		next.Expertises = normalizeSet(upd.Expertises)
	}
	if err := ValidateRequirements(next.ProfileID, next.Seniority); err != nil {
		return nil, err
	}

	var released *string
	if a.Bound() {
		if err := ValidateTransition(a.BookingStatus, BookingSearch); err != nil {
			return nil, err
		}
		released = a.CandidateID
		next.CandidateID = nil
		next.BookingStatus = BookingSearch
	}
	next.UpdatedAt = s.now()
	if err := s.assignments.Update(ctx, next, a.BookingStatus); err != nil {
		return nil, s.mapWriteErr("updating requirements", err)
	}

	if released != nil {
		_, err := s.notifier.Notify(ctx, notification.CreateRequest{
			CandidateID:  *released,
			AssignmentID: &next.ID,
			Type:         notification.TypeSeatChanged,
			Payload:      map[string]any{"project_id": next.ProjectID},
		})
		if err != nil {
			s.logger.Warn("notifying released candidate failed", "assignment_id", next.ID, "error", err)
		}
		s.record(ctx, next, *released, activity.TypeSeatReopened, "requirements changed, seat reopened")
	}
	return next, nil
}

// Delete removes a seat.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return nil
}

// ListForCandidate returns every seat relevant to the candidate.
func (s *Service) ListForCandidate(ctx context.Context, id Identity) ([]Assignment, error) {
	if id.CandidateID == "" {
		return nil, ErrInvalidInput
	}
	return s.assignments.ListForCandidate(ctx, id)
}

// ListByProject returns a project's seats.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]Assignment, error) {
	return s.assignments.ListByProject(ctx, projectID)
}

// ListOpen returns a project's seats still looking for a candidate.
func (s *Service) ListOpen(ctx context.Context, projectID string) ([]Assignment, error) {
	all, err := s.assignments.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	open := make([]Assignment, 0, len(all))
	for _, a := range all {
		if a.BookingStatus == BookingSearch && !a.Bound() {
			open = append(open, a)
		}
	}
	return open, nil
}

// ListTeam returns the candidates holding accepted seats on a project.
func (s *Service) ListTeam(ctx context.Context, projectID string) ([]TeamMember, error) {
	return s.candidates.ListTeam(ctx, projectID)
}

// GetCandidate fetches a candidate profile.
func (s *Service) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	c, err := s.candidates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("getting candidate: %w", err)
	}
	return c, nil
}

// CreateCandidate registers a candidate profile.
func (s *Service) CreateCandidate(ctx context.Context, c *Candidate) error {
	if strings.TrimSpace(c.DisplayName) == "" {
		return ErrInvalidInput
	}
	if err := ValidateRequirements(c.ProfileID, c.Seniority); err != nil {
		return err
	}
	if c.Availability == "" {
		c.Availability = AvailabilityAvailable
	}
	if !c.Availability.Valid() {
		return ErrInvalidInput
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Languages = normalizeSet(c.Languages)
	c.Expertises = normalizeSet(c.Expertises)
	c.CreatedAt = s.now()
	if err := s.candidates.Create(ctx, c); err != nil {
		return fmt.Errorf("creating candidate: %w", err)
	}
	return nil
}

func (s *Service) move(ctx context.Context, id string, to BookingStatus, mutate func(*Assignment)) (*Assignment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.BookingStatus
	if err := ValidateTransition(from, to); err != nil {
		return nil, err
	}
	a.BookingStatus = to
	if mutate != nil {
		mutate(a)
	}
	a.UpdatedAt = s.now()
	if err := s.assignments.Update(ctx, a, from); err != nil {
		return nil, s.mapWriteErr("updating assignment", err)
	}
	return a, nil
}

// advanceProject moves a project waiting for its team to play once every
// published seat is accepted.
func (s *Service) advanceProject(ctx context.Context, projectID string) {
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		s.logger.Warn("loading project for status advance failed", "project_id", projectID, "error", err)
		return
	}
	if proj.Status != project.StatusAwaitTeam {
		return
	}
	seats, err := s.assignments.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Warn("listing seats for status advance failed", "project_id", projectID, "error", err)
		return
	}
	published := 0
	for _, seat := range seats {
		if seat.BookingStatus == BookingDraft {
			continue
		}
		if seat.BookingStatus != BookingAccepted {
			return
		}
		published++
	}
	if published == 0 {
		return
	}
	if _, err := s.projects.UpdateStatus(ctx, projectID, project.StatusPlay); err != nil {
		s.logger.Warn("advancing project status failed", "project_id", projectID, "error", err)
		return
	}
	if s.audit != nil {
		_ = s.audit.LogActivity(ctx, &activity.ActivityEntry{
			ProjectID:    projectID,
			ActivityType: activity.TypeProjectStaffed,
			Summary:      "all seats filled, project started",
		})
	}
}

func (s *Service) mapWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrAssignmentNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrInvalidTransition
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) record(ctx context.Context, a *Assignment, actorID string, kind activity.ActivityType, summary string) {
	if s.audit == nil {
		return
	}
	id := a.ID
	entry := &activity.ActivityEntry{
		ProjectID:    a.ProjectID,
		ActorID:      actorID,
		AssignmentID: &id,
		ActivityType: kind,
		Summary:      summary,
		Details: activity.Details(map[string]any{
			"booking_status": a.BookingStatus,
			"profile_id":     a.ProfileID,
			"seniority":      a.Seniority,
		}),
	}
	if err := s.audit.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed", "assignment_id", a.ID, "error", err)
	}
}

// normalizeSet trims, drops empties, sorts and dedups.
func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
