package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/meeting"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/domain/task"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.ProjectSummary, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

// AssignmentRepository is a mock for staffing.AssignmentRepository.
type AssignmentRepository struct {
	mock.Mock
}

func (m *AssignmentRepository) Create(ctx context.Context, a *staffing.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AssignmentRepository) Get(ctx context.Context, id string) (*staffing.Assignment, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).(*staffing.Assignment); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssignmentRepository) Update(ctx context.Context, a *staffing.Assignment, expected staffing.BookingStatus) error {
	args := m.Called(ctx, a, expected)
	return args.Error(0)
}

func (m *AssignmentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AssignmentRepository) ListByProject(ctx context.Context, projectID string) ([]staffing.Assignment, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]staffing.Assignment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssignmentRepository) ListForCandidate(ctx context.Context, id staffing.Identity) ([]staffing.Assignment, error) {
	args := m.Called(ctx, id)
	if list, ok := args.Get(0).([]staffing.Assignment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// CandidateRepository is a mock for staffing.CandidateRepository.
type CandidateRepository struct {
	mock.Mock
}

func (m *CandidateRepository) Create(ctx context.Context, c *staffing.Candidate) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CandidateRepository) Get(ctx context.Context, id string) (*staffing.Candidate, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*staffing.Candidate); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CandidateRepository) FindAvailable(ctx context.Context, profileID string, seniority staffing.Seniority) ([]staffing.Candidate, error) {
	args := m.Called(ctx, profileID, seniority)
	if list, ok := args.Get(0).([]staffing.Candidate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CandidateRepository) ListTeam(ctx context.Context, projectID string) ([]staffing.TeamMember, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]staffing.TeamMember); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// NotificationRepository is a mock for notification.Repository.
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	if n, ok := args.Get(0).(*notification.Notification); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) List(ctx context.Context, opts notification.ListOptions) ([]notification.Notification, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]notification.Notification); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) UpdateStatus(ctx context.Context, id string, status notification.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *NotificationRepository) ArchiveForAssignment(ctx context.Context, assignmentID, exceptCandidateID string) (int, error) {
	args := m.Called(ctx, assignmentID, exceptCandidateID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) ArchiveForCandidate(ctx context.Context, assignmentID, candidateID string) (int, error) {
	args := m.Called(ctx, assignmentID, candidateID)
	return args.Int(0), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// TaskRepository is a mock for task.Repository.
type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TaskRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*task.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, t *task.Task, expected int64) error {
	args := m.Called(ctx, t, expected)
	return args.Error(0)
}

func (m *TaskRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskRepository) List(ctx context.Context, opts task.ListOptions) ([]task.Task, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]task.Task); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) CountByStatus(ctx context.Context, projectID string) (task.BoardSummary, error) {
	args := m.Called(ctx, projectID)
	if counts, ok := args.Get(0).(task.BoardSummary); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

// TaskSearchRepository is a mock for task.SearchRepository.
type TaskSearchRepository struct {
	mock.Mock
}

func (m *TaskSearchRepository) Search(ctx context.Context, projectID, query string, opts task.SearchOptions) ([]task.SearchResult, error) {
	args := m.Called(ctx, projectID, query, opts)
	if results, ok := args.Get(0).([]task.SearchResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

// ThreadRepository is a mock for message.ThreadRepository.
type ThreadRepository struct {
	mock.Mock
}

func (m *ThreadRepository) Create(ctx context.Context, t *message.Thread) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *ThreadRepository) Get(ctx context.Context, id string) (*message.Thread, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*message.Thread); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) ListByProject(ctx context.Context, projectID string) ([]message.Thread, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]message.Thread); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) UpdateType(ctx context.Context, id string, typ message.ThreadType, participants []message.Participant) error {
	args := m.Called(ctx, id, typ, participants)
	return args.Error(0)
}

// MessageRepository is a mock for message.MessageRepository.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Create(ctx context.Context, msg *message.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepository) ListByThread(ctx context.Context, threadID string, limit int) ([]message.Message, error) {
	args := m.Called(ctx, threadID, limit)
	if list, ok := args.Get(0).([]message.Message); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MeetingRepository is a mock for meeting.Repository.
type MeetingRepository struct {
	mock.Mock
}

func (m *MeetingRepository) Create(ctx context.Context, mt *meeting.Meeting) error {
	args := m.Called(ctx, mt)
	return args.Error(0)
}

func (m *MeetingRepository) Get(ctx context.Context, id string) (*meeting.Meeting, error) {
	args := m.Called(ctx, id)
	if mt, ok := args.Get(0).(*meeting.Meeting); ok {
		return mt, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MeetingRepository) ListUpcoming(ctx context.Context, projectID string, from time.Time, limit int) ([]meeting.Meeting, error) {
	args := m.Called(ctx, projectID, from, limit)
	if list, ok := args.Get(0).([]meeting.Meeting); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
