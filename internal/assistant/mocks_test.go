package assistant

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/meeting"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/domain/task"
)

type taskMock struct{ mock.Mock }

func (m *taskMock) Create(ctx context.Context, req task.CreateRequest) (*task.Task, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *taskMock) Get(ctx context.Context, id string) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *taskMock) Move(ctx context.Context, id string, to task.Status) (*task.Task, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *taskMock) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *taskMock) List(ctx context.Context, opts task.ListOptions) ([]task.Task, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Task), args.Error(1)
}

func (m *taskMock) Board(ctx context.Context, projectID string) (task.BoardSummary, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(task.BoardSummary), args.Error(1)
}

type meetingMock struct{ mock.Mock }

func (m *meetingMock) Create(ctx context.Context, req meeting.CreateRequest) (*meeting.Meeting, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meeting.Meeting), args.Error(1)
}

func (m *meetingMock) ListUpcoming(ctx context.Context, projectID string, limit int) ([]meeting.Meeting, error) {
	args := m.Called(ctx, projectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]meeting.Meeting), args.Error(1)
}

type projectMock struct{ mock.Mock }

func (m *projectMock) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *projectMock) List(ctx context.Context, opts project.ListOptions) ([]project.ProjectSummary, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.ProjectSummary), args.Error(1)
}

func (m *projectMock) UpdateStatus(ctx context.Context, id string, status project.Status) (*project.Project, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

type staffingMock struct{ mock.Mock }

func (m *staffingMock) ListByProject(ctx context.Context, projectID string) ([]staffing.Assignment, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]staffing.Assignment), args.Error(1)
}

func (m *staffingMock) ListOpen(ctx context.Context, projectID string) ([]staffing.Assignment, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]staffing.Assignment), args.Error(1)
}

func (m *staffingMock) ListTeam(ctx context.Context, projectID string) ([]staffing.TeamMember, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]staffing.TeamMember), args.Error(1)
}

type messageMock struct{ mock.Mock }

func (m *messageMock) Send(ctx context.Context, req message.SendRequest) (*message.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*message.Message), args.Error(1)
}

func (m *messageMock) ListVisible(ctx context.Context, threadID, userID string, limit int) ([]message.Message, error) {
	args := m.Called(ctx, threadID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]message.Message), args.Error(1)
}

type notifierMock struct{ mock.Mock }

func (m *notifierMock) Notify(ctx context.Context, req notification.CreateRequest) (*notification.Notification, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

type auditMock struct{ mock.Mock }

func (m *auditMock) LogActivity(ctx context.Context, entry *activity.ActivityEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *auditMock) GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	entries, _ := args.Get(0).([]activity.ActivityEntry)
	return entries, args.Error(1)
}

type fixture struct {
	tasks    *taskMock
	meetings *meetingMock
	projects *projectMock
	staffing *staffingMock
	messages *messageMock
	notifier *notifierMock
	audit    *auditMock
}

func newFixture() *fixture {
	return &fixture{
		tasks:    &taskMock{},
		meetings: &meetingMock{},
		projects: &projectMock{},
		staffing: &staffingMock{},
		messages: &messageMock{},
		notifier: &notifierMock{},
		audit:    &auditMock{},
	}
}

func (f *fixture) services() Services {
	return Services{
		Tasks:    f.tasks,
		Meetings: f.meetings,
		Projects: f.projects,
		Staffing: f.staffing,
		Messages: f.messages,
		Notifier: f.notifier,
		Audit:    f.audit,
	}
}

func (f *fixture) dispatcher() *Dispatcher {
	return NewDispatcher(f.services(), nil)
}
