package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `TeamDash runs staffed projects: a project owner opens seats (assignments), candidates accept them, and the team works on a Kanban board, in meetings and in message threads.

Scope:
- Most tools act on one project. Pass it with the Mcp-Project-Id header (HTTP) or _meta.project_id (stdio).
- send_message falls back to the thread in Mcp-Thread-Id / _meta.thread_id when thread_id is omitted.

Working with tools:
1) Orient: get_project_status, then list_team and list_tasks.
2) Write: add_task (assignee must be on the team), update_task_status, create_meeting, send_message.
3) Every result is {success, message, ...}. On success:false read code and validation_errors; fix the arguments and retry rather than guessing.
4) Writes are not transactional. add_task may report success:false after the task was created if the assignee could not be notified.

Docs:
- teamdash://docs/index
- teamdash://docs/staffing
- teamdash://docs/tools
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "teamdash://docs/index",
		Name:        "docs_index",
		Title:       "TeamDash docs index",
		Description: "Entry point: what the server exposes and what to read next.",
		Content: `# TeamDash agent docs

- ` + "`teamdash://docs/staffing`" + `: how seats, candidates and eligibility work.
- ` + "`teamdash://docs/tools`" + `: the tool catalog, result shape and error codes.

Tools validate their arguments before touching any data. A call with a missing
required field, a wrong type, an unknown enum value or an out of range number
returns every problem at once in ` + "`validation_errors`" + `.
`,
	},
	{
		URI:         "teamdash://docs/staffing",
		Name:        "docs_staffing",
		Title:       "Staffing model",
		Description: "Assignments, booking statuses and which candidates see which seats.",
		Content: `# Staffing model

An assignment is one seat on a project: a profile (role), a seniority, and a
booking status.

| Status | Meaning |
|---|---|
| draft | being prepared, not visible to candidates |
| recherche | open search, visible to matching candidates |
| accepted | bound to one candidate |
| declined | the candidate declined |
| expired | the search ended without a match |

A candidate sees an assignment when it is bound to them, or when it is an open
search for exactly their profile and seniority, and its project is neither
archived nor deleted. Changing a seat's seniority hides it from candidates of
the old seniority; changing its profile shows it to candidates of the new one.

The team of a project is the set of candidates holding accepted seats. Tasks
and meeting invitations can only target team members.
`,
	},
	{
		URI:         "teamdash://docs/tools",
		Name:        "docs_tools",
		Title:       "Tool catalog",
		Description: "Tool list, result shape and error codes.",
		Content: `# Tools

| Area | Tools |
|---|---|
| Tasks | add_task, update_task_status, list_tasks, get_task, delete_task |
| Meetings | create_meeting, list_meetings |
| Projects | get_project_status, list_projects, update_project_status |
| Staffing | list_team, list_open_assignments |
| Messages | send_message |
| UI | navigate_to, explain_feature |

## Result

` + "```json" + `
{"success": true, "message": "Task created.", "task": {"id": "..."}}
` + "```" + `

Payload keys sit next to success and message.

## Error codes

- ` + "`tool_not_found`" + `: the name is not in the catalog; nothing ran.
- ` + "`validation_failed`" + `: see validation_errors; nothing ran.
- ` + "`operation_failed`" + `: the data layer refused the change; earlier writes of the same call are kept.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
