package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/meeting"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/domain/task"
)

const recentActivityLimit = 5

// call is a decoded tool invocation. Only this package implements it.
type call interface {
	run(ctx context.Context, d *Dispatcher, scope Scope) Result
}

// decode binds validated arguments to the typed call for name.
func decode(name ToolName, args map[string]any) (call, error) {
	switch name {
	case ToolAddTask:
		return bind[addTask](args)
	case ToolUpdateTaskStatus:
		return bind[updateTaskStatus](args)
	case ToolListTasks:
		return bind[listTasks](args)
	case ToolGetTask:
		return bind[getTask](args)
	case ToolDeleteTask:
		return bind[deleteTask](args)
	case ToolCreateMeeting:
		return bind[createMeeting](args)
	case ToolListMeetings:
		return bind[listMeetings](args)
	case ToolGetProjectStatus:
		return bind[getProjectStatus](args)
	case ToolListProjects:
		return bind[listProjects](args)
	case ToolUpdateProjectStatus:
		return bind[updateProjectStatus](args)
	case ToolListTeam:
		return bind[listTeam](args)
	case ToolListOpenAssignments:
		return bind[listOpenAssignments](args)
	case ToolSendMessage:
		return bind[sendMessage](args)
	case ToolNavigateTo:
		return bind[navigateTo](args)
	case ToolExplainFeature:
		return bind[explainFeature](args)
	}
	return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

type callPtr[T any] interface {
	*T
	call
}

func bind[T any, P callPtr[T]](args map[string]any) (call, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding arguments: %w", err)
	}
	var c T
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	return P(&c), nil
}

var errNoProject = errors.New("no project selected")

func noProject() Result {
	return Result{
		Message:          "Open a project first.",
		Error:            errNoProject.Error(),
		Code:             CodeValidationFailed,
		ValidationErrors: []string{"missing project scope"},
	}
}

// taskInScope loads a task and hides tasks of other projects.
func taskInScope(ctx context.Context, d *Dispatcher, scope Scope, id string) (*task.Task, error) {
	t, err := d.svc.Tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope.ProjectID != "" && t.ProjectID != scope.ProjectID {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

type addTask struct {
	Title          string   `json:"title"`
	Assignee       string   `json:"assignee"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	DueDate        string   `json:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

// run creates the task then notifies the assignee. The two writes are not
// atomic: a failed notification leaves the task in place.
func (c *addTask) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if scope.ProjectID == "" {
		return noProject()
	}
	due, err := task.ParseDueDate(c.DueDate)
	if err != nil {
		return Result{
			Message:          "The due date is invalid.",
			Error:            err.Error(),
			Code:             CodeValidationFailed,
			ValidationErrors: []string{fmt.Sprintf("field %q: %v", "due_date", err)},
		}
	}

	team, err := d.svc.Staffing.ListTeam(ctx, scope.ProjectID)
	if err != nil {
		return failed("Could not load the team.", err)
	}
	member := findMember(team, c.Assignee)
	assignee := strings.TrimSpace(c.Assignee)
	if member != nil {
		assignee = member.CandidateID
	}

	t, err := d.svc.Tasks.Create(ctx, task.CreateRequest{
		ProjectID:      scope.ProjectID,
		Title:          c.Title,
		Description:    c.Description,
		Assignee:       assignee,
		Status:         task.Status(c.Status),
		Priority:       task.Priority(c.Priority),
		DueDate:        due,
		EstimatedHours: c.EstimatedHours,
		CreatedBy:      scope.UserID,
	})
	if err != nil {
		return failed("Could not create the task.", err)
	}
	payload := map[string]any{"task": t}

	if member == nil {
		return succeeded(fmt.Sprintf("Task %q created for %s.", t.Title, assignee), payload)
	}
	_, err = d.svc.Notifier.Notify(ctx, notification.CreateRequest{
		CandidateID:  member.CandidateID,
		AssignmentID: &member.AssignmentID,
		Type:         notification.TypeTaskAssigned,
		Payload:      map[string]any{"task_id": t.ID, "title": t.Title, "project_id": t.ProjectID},
	})
	if err != nil {
		res := failed(fmt.Sprintf("Task %q was created but %s could not be notified.", t.Title, member.DisplayName), err)
		res.Payload = payload
		return res
	}
	return succeeded(fmt.Sprintf("Task %q created and assigned to %s.", t.Title, member.DisplayName), payload)
}

func findMember(team []staffing.TeamMember, who string) *staffing.TeamMember {
	who = strings.TrimSpace(who)
	for i := range team {
		if team[i].CandidateID == who || strings.EqualFold(team[i].DisplayName, who) {
			return &team[i]
		}
	}
	return nil
}

type updateTaskStatus struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (c *updateTaskStatus) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if _, err := taskInScope(ctx, d, scope, c.TaskID); err != nil {
		return failed("Task not found.", err)
	}
	t, err := d.svc.Tasks.Move(ctx, c.TaskID, task.Status(c.Status))
	if err != nil {
		return failed("Could not move the task.", err)
	}
	return succeeded(fmt.Sprintf("Task %q moved to %s.", t.Title, t.Status), map[string]any{"task": t})
}

type listTasks struct {
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
	Limit    int    `json:"limit"`
}

func (c *listTasks) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if scope.ProjectID == "" {
		return noProject()
	}
	opts := task.ListOptions{ProjectID: scope.ProjectID, Assignee: c.Assignee, Limit: c.Limit}
	if opts.Limit == 0 {
		opts.Limit = 20
	}
	if c.Status != "" {
		opts.Statuses = []task.Status{task.Status(c.Status)}
	}
	tasks, err := d.svc.Tasks.List(ctx, opts)
	if err != nil {
		return failed("Could not list tasks.", err)
	}
	return succeeded(fmt.Sprintf("%d task(s) found.", len(tasks)), map[string]any{"tasks": tasks, "count": len(tasks)})
}

type getTask struct {
	TaskID string `json:"task_id"`
}

func (c *getTask) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	t, err := taskInScope(ctx, d, scope, c.TaskID)
	if err != nil {
		return failed("Task not found.", err)
	}
	return succeeded(fmt.Sprintf("Task %q is %s.", t.Title, t.Status), map[string]any{"task": t})
}

type deleteTask struct {
	TaskID string `json:"task_id"`
}

func (c *deleteTask) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	t, err := taskInScope(ctx, d, scope, c.TaskID)
	if err != nil {
		return failed("Task not found.", err)
	}
	if err := d.svc.Tasks.Delete(ctx, t.ID); err != nil {
		return failed("Could not delete the task.", err)
	}
	return succeeded(fmt.Sprintf("Task %q deleted.", t.Title), map[string]any{"task_id": t.ID})
}

type createMeeting struct {
	Title           string   `json:"title"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Description     string   `json:"description"`
	Participants    []string `json:"participants"`
}

func (c *createMeeting) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if scope.ProjectID == "" {
		return noProject()
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(c.StartTime))
	if err != nil {
		return Result{
			Message:          "The start time is invalid.",
			Error:            err.Error(),
			Code:             CodeValidationFailed,
			ValidationErrors: []string{fmt.Sprintf("field %q must be an RFC 3339 time", "start_time")},
		}
	}
	m, err := d.svc.Meetings.Create(ctx, meeting.CreateRequest{
		ProjectID:       scope.ProjectID,
		Title:           c.Title,
		Description:     c.Description,
		StartsAt:        start,
		DurationMinutes: c.DurationMinutes,
		Participants:    c.Participants,
		CreatedBy:       scope.UserID,
	})
	if err != nil {
		return failed("Could not schedule the meeting.", err)
	}
	payload := map[string]any{"meeting": m, "video_link": m.VideoLink}

	if len(m.Participants) == 0 {
		return succeeded(fmt.Sprintf("Meeting %q scheduled.", m.Title), payload)
	}
	team, err := d.svc.Staffing.ListTeam(ctx, scope.ProjectID)
	if err != nil {
		res := failed(fmt.Sprintf("Meeting %q was scheduled but participants could not be notified.", m.Title), err)
		res.Payload = payload
		return res
	}
	for _, p := range m.Participants {
		member := findMember(team, p)
		if member == nil {
			continue
		}
		_, err := d.svc.Notifier.Notify(ctx, notification.CreateRequest{
			CandidateID:  member.CandidateID,
			AssignmentID: &member.AssignmentID,
			Type:         notification.TypeMeeting,
			Payload:      map[string]any{"meeting_id": m.ID, "title": m.Title, "starts_at": m.StartsAt, "video_link": m.VideoLink},
		})
		if err != nil {
			res := failed(fmt.Sprintf("Meeting %q was scheduled but %s could not be notified.", m.Title, member.DisplayName), err)
			res.Payload = payload
			return res
		}
	}
	return succeeded(fmt.Sprintf("Meeting %q scheduled.", m.Title), payload)
}

type listMeetings struct {
	Limit int `json:"limit"`
}

func (c *listMeetings) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if scope.ProjectID == "" {
		return noProject()
	}
	limit := c.Limit
	if limit == 0 {
		limit = 10
	}
	meetings, err := d.svc.Meetings.ListUpcoming(ctx, scope.ProjectID, limit)
	if err != nil {
		return failed("Could not list meetings.", err)
	}
	return succeeded(fmt.Sprintf("%d upcoming meeting(s).", len(meetings)), map[string]any{"meetings": meetings, "count": len(meetings)})
}

type getProjectStatus struct {
	ProjectID string `json:"project_id"`
}

func (c *getProjectStatus) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	id := c.ProjectID
	if id == "" {
		id = scope.ProjectID
	}
	if id == "" {
		return noProject()
	}
	p, err := d.svc.Projects.Get(ctx, id)
	if err != nil {
		return failed("Project not found.", err)
	}
	if p.Hidden() {
		return failed("Project not found.", project.ErrProjectNotFound)
	}
	seats, err := d.svc.Staffing.ListByProject(ctx, id)
	if err != nil {
		return failed("Could not load the project's seats.", err)
	}
	board, err := d.svc.Tasks.Board(ctx, id)
	if err != nil {
		return failed("Could not load the task board.", err)
	}

	staffed, published := 0, 0
	for _, s := range seats {
		if s.BookingStatus == staffing.BookingDraft {
			continue
		}
		published++
		if s.BookingStatus == staffing.BookingAccepted {
			staffed++
		}
	}
	payload := map[string]any{
		"project":      p,
		"seats_total":  published,
		"seats_filled": staffed,
		"board":        board,
	}
	if d.svc.Audit != nil {
		recent, err := d.svc.Audit.GetRecentActivity(ctx, activity.ListActivityOptions{ProjectID: id, Limit: recentActivityLimit})
		if err != nil {
			d.logger.Warn("loading recent activity", "project_id", id, "error", err)
		} else {
			payload["recent_activity"] = recent
		}
	}
	return succeeded(
		fmt.Sprintf("Project %q is %s, %d of %d seat(s) filled.", p.Title, p.Status, staffed, published),
		payload,
	)
}

type listProjects struct {
	Status string `json:"status"`
}

func (c *listProjects) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	projects, err := d.svc.Projects.List(ctx, project.ListOptions{Status: project.Status(c.Status)})
	if err != nil {
		return failed("Could not list projects.", err)
	}
	return succeeded(fmt.Sprintf("%d project(s).", len(projects)), map[string]any{"projects": projects, "count": len(projects)})
}

type updateProjectStatus struct {
	Status string `json:"status"`
}

func (c *updateProjectStatus) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if scope.ProjectID == "" {
		return noProject()
	}
	p, err := d.svc.Projects.UpdateStatus(ctx, scope.ProjectID, project.Status(c.Status))
	if err != nil {
		return failed("Could not update the project status.", err)
	}
	return succeeded(fmt.Sprintf("Project %q is now %s.", p.Title, p.Status), map[string]any{"project": p})
}

type listTeam struct{}

func (c *listTeam) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if scope.ProjectID == "" {
		return noProject()
	}
	team, err := d.svc.Staffing.ListTeam(ctx, scope.ProjectID)
	if err != nil {
		return failed("Could not load the team.", err)
	}
	return succeeded(fmt.Sprintf("%d team member(s).", len(team)), map[string]any{"team": team, "count": len(team)})
}

type listOpenAssignments struct{}

func (c *listOpenAssignments) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	if scope.ProjectID == "" {
		return noProject()
	}
	seats, err := d.svc.Staffing.ListOpen(ctx, scope.ProjectID)
	if err != nil {
		return failed("Could not list open seats.", err)
	}
	return succeeded(fmt.Sprintf("%d open seat(s).", len(seats)), map[string]any{"assignments": seats, "count": len(seats)})
}

type sendMessage struct {
	Content  string `json:"content"`
	ThreadID string `json:"thread_id"`
}

func (c *sendMessage) run(ctx context.Context, d *Dispatcher, scope Scope) Result {
	threadID := c.ThreadID
	if threadID == "" {
		threadID = scope.ThreadID
	}
	if threadID == "" {
		return Result{
			Message:          "No thread to post in.",
			Error:            message.ErrInvalidInput.Error(),
			Code:             CodeValidationFailed,
			ValidationErrors: []string{fmt.Sprintf("missing required field %q", "thread_id")},
		}
	}
	m, err := d.svc.Messages.Send(ctx, message.SendRequest{
		ThreadID: threadID,
		SenderID: AssistantID,
		Content:  c.Content,
		IsAI:     true,
	})
	if err != nil {
		return failed("Could not send the message.", err)
	}
	return succeeded("Message sent.", map[string]any{"message_id": m.ID, "thread_id": m.ThreadID})
}

type navigateTo struct {
	Page string `json:"page"`
}

// run has no side effect; the client acts on the navigate payload.
func (c *navigateTo) run(_ context.Context, _ *Dispatcher, scope Scope) Result {
	path := "/" + c.Page
	if scope.ProjectID != "" && c.Page != "dashboard" && c.Page != "projects" && c.Page != "settings" {
		path = "/projects/" + scope.ProjectID + path
	}
	return succeeded(fmt.Sprintf("Opening %s.", c.Page), map[string]any{"navigate": path, "page": c.Page})
}

type explainFeature struct {
	Feature string `json:"feature"`
}

func (c *explainFeature) run(_ context.Context, _ *Dispatcher, _ Scope) Result {
	return succeeded(explanations[c.Feature], map[string]any{"feature": c.Feature})
}
