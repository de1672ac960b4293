package assistant

// ToolName identifies a catalog entry. The set is closed: every name has a
// call type in calls.go.
type ToolName string

const (
	ToolAddTask             ToolName = "add_task"
	ToolUpdateTaskStatus    ToolName = "update_task_status"
	ToolListTasks           ToolName = "list_tasks"
	ToolGetTask             ToolName = "get_task"
	ToolDeleteTask          ToolName = "delete_task"
	ToolCreateMeeting       ToolName = "create_meeting"
	ToolListMeetings        ToolName = "list_meetings"
	ToolGetProjectStatus    ToolName = "get_project_status"
	ToolListProjects        ToolName = "list_projects"
	ToolUpdateProjectStatus ToolName = "update_project_status"
	ToolListTeam            ToolName = "list_team"
	ToolListOpenAssignments ToolName = "list_open_assignments"
	ToolSendMessage         ToolName = "send_message"
	ToolNavigateTo          ToolName = "navigate_to"
	ToolExplainFeature      ToolName = "explain_feature"
)

var (
	taskStatuses    = []string{"todo", "in_progress", "review", "done"}
	taskPriorities  = []string{"low", "medium", "high", "urgent"}
	projectStatuses = []string{"pause", "attente-team", "play", "completed"}
	pages           = []string{"dashboard", "projects", "kanban", "calendar", "team", "messages", "marketplace", "notifications", "settings"}
	features        = []string{"kanban", "meetings", "staffing", "marketplace", "messages", "notifications", "assistant"}
)

var catalog = []Tool{
	{
		Name:        ToolAddTask,
		Description: "Create a task on the project's Kanban board and notify its assignee.",
		Writes:      true,
		Parameters: object([]string{"title", "assignee"}, map[string]Property{
			"title":           {Type: TypeString, Description: "Short task title"},
			"assignee":        {Type: TypeString, Description: "Team member id or display name"},
			"description":     {Type: TypeString, Description: "Details of the work"},
			"priority":        {Type: TypeString, Description: "Task priority", Enum: taskPriorities, Default: "medium"},
			"status":          {Type: TypeString, Description: "Initial column", Enum: taskStatuses, Default: "todo"},
			"due_date":        {Type: TypeString, Description: "Due date, YYYY-MM-DD or RFC 3339"},
			"estimated_hours": {Type: TypeNumber, Description: "Effort estimate in hours", Minimum: bound(0), Maximum: bound(1000)},
		}),
	},
	{
		Name:        ToolUpdateTaskStatus,
		Description: "Move a task to another Kanban column.",
		Writes:      true,
		Parameters: object([]string{"task_id", "status"}, map[string]Property{
			"task_id": {Type: TypeString, Description: "Task id"},
			"status":  {Type: TypeString, Description: "Target column", Enum: taskStatuses},
		}),
	},
	{
		Name:        ToolListTasks,
		Description: "List the project's tasks, optionally filtered by column or assignee.",
		Parameters: object(nil, map[string]Property{
			"status":   {Type: TypeString, Description: "Only tasks in this column", Enum: taskStatuses},
			"assignee": {Type: TypeString, Description: "Only tasks assigned to this member"},
			"limit":    {Type: TypeInteger, Description: "Maximum number of tasks", Minimum: bound(1), Maximum: bound(100), Default: 20},
		}),
	},
	{
		Name:        ToolGetTask,
		Description: "Get one task with all its details.",
		Parameters: object([]string{"task_id"}, map[string]Property{
			"task_id": {Type: TypeString, Description: "Task id"},
		}),
	},
	{
		Name:        ToolDeleteTask,
		Description: "Delete a task from the board.",
		Writes:      true,
		Parameters: object([]string{"task_id"}, map[string]Property{
			"task_id": {Type: TypeString, Description: "Task id"},
		}),
	},
	{
		Name:        ToolCreateMeeting,
		Description: "Schedule a project meeting with a generated video link.",
		Writes:      true,
		Parameters: object([]string{"title", "start_time"}, map[string]Property{
			"title":            {Type: TypeString, Description: "Meeting title"},
			"start_time":       {Type: TypeString, Description: "Start time in RFC 3339"},
			"duration_minutes": {Type: TypeInteger, Description: "Length of the meeting", Minimum: bound(15), Maximum: bound(480), Default: 60},
			"description":      {Type: TypeString, Description: "Agenda"},
			"participants":     {Type: TypeArray, Description: "Participant ids", Items: &Property{Type: TypeString}},
		}),
	},
	{
		Name:        ToolListMeetings,
		Description: "List the project's upcoming meetings.",
		Parameters: object(nil, map[string]Property{
			"limit": {Type: TypeInteger, Description: "Maximum number of meetings", Minimum: bound(1), Maximum: bound(50), Default: 10},
		}),
	},
	{
		Name:        ToolGetProjectStatus,
		Description: "Summarize a project: status, staffing progress and task board counts.",
		Parameters: object(nil, map[string]Property{
			"project_id": {Type: TypeString, Description: "Project id, defaults to the current project"},
		}),
	},
	{
		Name:        ToolListProjects,
		Description: "List visible projects.",
		Parameters: object(nil, map[string]Property{
			"status": {Type: TypeString, Description: "Only projects with this status", Enum: projectStatuses},
		}),
	},
	{
		Name:        ToolUpdateProjectStatus,
		Description: "Change the current project's status.",
		Writes:      true,
		Parameters: object([]string{"status"}, map[string]Property{
			"status": {Type: TypeString, Description: "New status", Enum: projectStatuses},
		}),
	},
	{
		Name:        ToolListTeam,
		Description: "List the members holding accepted seats on the project.",
		Parameters:  object(nil, nil),
	},
	{
		Name:        ToolListOpenAssignments,
		Description: "List the project's seats still searching for a candidate.",
		Parameters:  object(nil, nil),
	},
	{
		Name:        ToolSendMessage,
		Description: "Post a message in a project thread on behalf of the assistant.",
		Writes:      true,
		Parameters: object([]string{"content"}, map[string]Property{
			"content":   {Type: TypeString, Description: "Message text"},
			"thread_id": {Type: TypeString, Description: "Thread id, defaults to the current thread"},
		}),
	},
	{
		Name:        ToolNavigateTo,
		Description: "Ask the client to open a page of the application.",
		Parameters: object([]string{"page"}, map[string]Property{
			"page": {Type: TypeString, Description: "Page to open", Enum: pages},
		}),
	},
	{
		Name:        ToolExplainFeature,
		Description: "Explain how a feature of TeamDash works.",
		Parameters: object([]string{"feature"}, map[string]Property{
			"feature": {Type: TypeString, Description: "Feature to explain", Enum: features},
		}),
	},
}

var byName = func() map[ToolName]Tool {
	m := make(map[ToolName]Tool, len(catalog))
	for _, t := range catalog {
		m[t.Name] = t
	}
	return m
}()

// Catalog returns every tool in declaration order.
func Catalog() []Tool {
	out := make([]Tool, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a tool by name.
func Lookup(name string) (Tool, bool) {
	t, ok := byName[ToolName(name)]
	return t, ok
}

var explanations = map[string]string{
	"kanban":        "The Kanban board has four columns: todo, in progress, review and done. Cards can move freely between columns and each card has one assignee.",
	"meetings":      "Meetings belong to a project, last between 15 minutes and 8 hours and get a video link when they are scheduled.",
	"staffing":      "A project lists seats, each asking for a profile and seniority. Publishing a seat notifies every available matching candidate; the first to accept takes it, and the project starts once every published seat is accepted.",
	"marketplace":   "The marketplace shows each candidate the open seats matching their profile and seniority, plus the seats already bound to them.",
	"messages":      "Threads are public to the whole project or private to their participants. A message keeps the visibility it had when it was sent.",
	"notifications": "Notifications tell candidates about opportunities and changes on their seats. They are unread, read or archived; archived is final.",
	"assistant":     "The assistant reads the project context and can act through tools: tasks, meetings, project status, team and messages.",
}
