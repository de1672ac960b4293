package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/meeting"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/domain/task"
)

// TaskService is the task board as the tools use it.
type TaskService interface {
	Create(ctx context.Context, req task.CreateRequest) (*task.Task, error)
	Get(ctx context.Context, id string) (*task.Task, error)
	Move(ctx context.Context, id string, to task.Status) (*task.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts task.ListOptions) ([]task.Task, error)
	Board(ctx context.Context, projectID string) (task.BoardSummary, error)
}

// MeetingService schedules and lists meetings.
type MeetingService interface {
	Create(ctx context.Context, req meeting.CreateRequest) (*meeting.Meeting, error)
	ListUpcoming(ctx context.Context, projectID string, limit int) ([]meeting.Meeting, error)
}

// ProjectService reads and updates projects.
type ProjectService interface {
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context, opts project.ListOptions) ([]project.ProjectSummary, error)
	UpdateStatus(ctx context.Context, id string, status project.Status) (*project.Project, error)
}

// StaffingService reads seats and teams.
type StaffingService interface {
	ListByProject(ctx context.Context, projectID string) ([]staffing.Assignment, error)
	ListOpen(ctx context.Context, projectID string) ([]staffing.Assignment, error)
	ListTeam(ctx context.Context, projectID string) ([]staffing.TeamMember, error)
}

// MessageService posts and reads thread messages.
type MessageService interface {
	Send(ctx context.Context, req message.SendRequest) (*message.Message, error)
	ListVisible(ctx context.Context, threadID, userID string, limit int) ([]message.Message, error)
}

// Notifier creates candidate notifications.
type Notifier interface {
	Notify(ctx context.Context, req notification.CreateRequest) (*notification.Notification, error)
}

// AuditLogger records tool executions and reads back a project's history.
type AuditLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services groups the domain services behind the tools. Audit may be nil.
type Services struct {
	Tasks    TaskService
	Meetings MeetingService
	Projects ProjectService
	Staffing StaffingService
	Messages MessageService
	Notifier Notifier
	Audit    AuditLogger
}

// Scope is who is calling and from where.
type Scope struct {
	ProjectID string
	UserID    string
	ThreadID  string
}

// AssistantID is the sender id of messages the assistant writes.
const AssistantID = "teamdash-assistant"

// Dispatcher validates tool calls and runs them against the domain services.
type Dispatcher struct {
	svc    Services
	logger *slog.Logger
	now    func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(svc Services, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{svc: svc, logger: logger, now: time.Now}
}

// Tools returns the catalog the dispatcher serves.
func (d *Dispatcher) Tools() []Tool {
	return Catalog()
}

// Dispatch runs one tool call. It never panics and never returns an error:
// every failure is a Result with Success false and a Code.
func (d *Dispatcher) Dispatch(ctx context.Context, scope Scope, name string, args map[string]any) (res Result) {
	tool, found := Lookup(name)
	if !found {
		d.logger.Warn("unknown tool", "tool", name)
		return Result{
			Message: fmt.Sprintf("Unknown tool %q.", name),
			Error:   fmt.Sprintf("%s: %s", ErrToolNotFound, name),
			Code:    CodeToolNotFound,
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	if msgs := Validate(tool.Parameters, args); len(msgs) > 0 {
		verr := &ValidationError{Tool: tool.Name, Messages: msgs}
		d.logger.Info("tool arguments rejected", "tool", name, "errors", len(msgs))
		return Result{
			Message:          "The arguments are invalid.",
			Error:            verr.Error(),
			Code:             CodeValidationFailed,
			ValidationErrors: msgs,
		}
	}

	c, err := decode(tool.Name, args)
	if err != nil {
		return Result{
			Message:          "The arguments are invalid.",
			Error:            err.Error(),
			Code:             CodeValidationFailed,
			ValidationErrors: []string{err.Error()},
		}
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", name, "panic", r)
			res = failed("The action could not be completed.", fmt.Errorf("internal error in %s", name))
		}
		d.audit(ctx, scope, tool, res)
	}()

	start := d.now()
	res = c.run(ctx, d, scope)
	d.logger.Debug("tool executed", "tool", name, "success", res.Success, "duration", time.Since(start))
	return res
}

func (d *Dispatcher) audit(ctx context.Context, scope Scope, tool Tool, res Result) {
	if d.svc.Audit == nil || scope.ProjectID == "" {
		return
	}
	kind := activity.TypeToolExecuted
	if !res.Success {
		kind = activity.TypeToolFailed
	}
	entry := &activity.ActivityEntry{
		ProjectID:    scope.ProjectID,
		ActorID:      AssistantID,
		ActivityType: kind,
		Summary:      fmt.Sprintf("%s: %s", tool.Name, res.Message),
		Details:      activity.Details(map[string]any{"tool": tool.Name, "user_id": scope.UserID, "error": res.Error}),
	}
	if err := d.svc.Audit.LogActivity(ctx, entry); err != nil {
		d.logger.Warn("recording tool activity", "tool", tool.Name, "error", err)
	}
}
