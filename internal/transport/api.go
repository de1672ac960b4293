package transport

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/staffing"
)

func principalOf(ctx context.Context) (Principal, huma.StatusError) {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p, nil
	}
	return Principal{}, newAPIError(http.StatusUnauthorized, "", "authentication required", nil)
}

func candidateOf(ctx context.Context) (Principal, huma.StatusError) {
	p, err := principalOf(ctx)
	if err != nil {
		return Principal{}, err
	}
	if !p.IsCandidate() {
		return Principal{}, newAPIError(http.StatusForbidden, "not_a_candidate", "caller has no candidate profile", nil)
	}
	return p, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerTools(api huma.API, tools ToolDispatcher) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tools",
		Method:      http.MethodGet,
		Path:        "/tools",
		Summary:     "List assistant tools",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ToolsResponse `json:"body"`
	}, error) {
		return &struct {
			Body ToolsResponse `json:"body"`
		}{Body: ToolsResponse{Tools: tools.Tools()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dispatch-tool",
		Method:      http.MethodPost,
		Path:        "/tools/{name}",
		Summary:     "Run a tool",
		Description: "Failures are results with success false. Unknown tools answer 404 and invalid arguments 422; both leave the data untouched.",
	}, func(ctx context.Context, input *struct {
		Name      string         `path:"name"`
		ProjectID string         `query:"project_id"`
		ThreadID  string         `query:"thread_id"`
		Body      map[string]any `required:"false"`
	}) (*struct {
		Status int
		Body   map[string]any `json:"body"`
	}, error) {
		p, authErr := principalOf(ctx)
		if authErr != nil {
			return nil, authErr
		}
		scope := assistant.Scope{ProjectID: input.ProjectID, ThreadID: input.ThreadID, UserID: p.UserID}
		res := tools.Dispatch(ctx, scope, input.Name, input.Body)
		return &struct {
			Status int
			Body   map[string]any `json:"body"`
		}{Status: statusOf(res), Body: res.Map()}, nil
	})
}

func statusOf(res assistant.Result) int {
	switch res.Code {
	case assistant.CodeToolNotFound:
		return http.StatusNotFound
	case assistant.CodeValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		// A failed operation may have written part of its effects.
		return http.StatusOK
	}
}

func registerFeed(api huma.API, feeds FeedService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-feed",
		Method:      http.MethodGet,
		Path:        "/feed",
		Summary:     "Visible assignments of the caller",
		Description: "Opens the caller's reconciled feed. Later changes arrive on the websocket channel feed:{candidate_id}.",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusBadGateway},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body FeedResponse `json:"body"`
	}, error) {
		p, authErr := candidateOf(ctx)
		if authErr != nil {
			return nil, authErr
		}
		session, err := feeds.Open(ctx, p.Identity())
		if err != nil {
			return nil, MapError(err)
		}
		return &struct {
			Body FeedResponse `json:"body"`
		}{Body: feedResponse(p.CandidateID, session.Snapshot(), session.Stale())}, nil
	})
}

type assignmentPath struct {
	ID string `path:"id"`
}

type assignmentOutput struct {
	Body staffing.Assignment `json:"body"`
}

func registerAssignments(api huma.API, svc StaffingService) {
	if svc == nil {
		return
	}
	booking := func(op func(context.Context, string, staffing.Identity) (*staffing.Assignment, error)) func(context.Context, *assignmentPath) (*assignmentOutput, error) {
		return func(ctx context.Context, input *assignmentPath) (*assignmentOutput, error) {
			p, authErr := candidateOf(ctx)
			if authErr != nil {
				return nil, authErr
			}
			a, err := op(ctx, input.ID, p.Identity())
			if err != nil {
				return nil, MapError(err)
			}
			return &assignmentOutput{Body: *a}, nil
		}
	}

	huma.Register(api, huma.Operation{
		OperationID: "accept-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/accept",
		Summary:     "Accept an open seat",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, booking(svc.Accept))

	huma.Register(api, huma.Operation{
		OperationID: "decline-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/decline",
		Summary:     "Decline a seat",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, booking(svc.Decline))
}

type notificationPath struct {
	ID string `path:"id"`
}

type notificationOutput struct {
	Body notification.Notification `json:"body"`
}

func registerNotifications(api huma.API, svc NotificationService) {
	if svc == nil {
		return
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List the caller's notifications",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"unread,read,archived"`
		Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200"`
	}) (*struct {
		Body []notification.Notification `json:"body"`
	}, error) {
		p, authErr := candidateOf(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := notification.ListOptions{CandidateID: p.CandidateID, Limit: input.Limit}
		if input.Status != "" {
			status := notification.Status(input.Status)
			opts.Status = &status
		}
		items, err := svc.List(ctx, opts)
		if err != nil {
			return nil, MapError(err)
		}
		if items == nil {
			items = []notification.Notification{}
		}
		return &struct {
			Body []notification.Notification `json:"body"`
		}{Body: items}, nil
	})

	transition := func(op func(context.Context, string, string) (*notification.Notification, error)) func(context.Context, *notificationPath) (*notificationOutput, error) {
		return func(ctx context.Context, input *notificationPath) (*notificationOutput, error) {
			p, authErr := candidateOf(ctx)
			if authErr != nil {
				return nil, authErr
			}
			n, err := op(ctx, p.CandidateID, input.ID)
			if err != nil {
				return nil, MapError(err)
			}
			return &notificationOutput{Body: *n}, nil
		}
	}

	huma.Register(api, huma.Operation{
		OperationID: "read-notification",
		Method:      http.MethodPost,
		Path:        "/notifications/{id}/read",
		Summary:     "Mark a notification read",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, transition(svc.MarkRead))

	huma.Register(api, huma.Operation{
		OperationID: "archive-notification",
		Method:      http.MethodPost,
		Path:        "/notifications/{id}/archive",
		Summary:     "Archive a notification",
		Errors:      []int{http.StatusNotFound},
	}, transition(svc.Archive))
}

func registerAssistant(api huma.API, svc AssistantService) {
	huma.Register(api, huma.Operation{
		OperationID: "assistant-turn",
		Method:      http.MethodPost,
		Path:        "/assistant",
		Summary:     "Ask the project assistant",
		Errors:      []int{http.StatusBadRequest, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		Body AssistantRequest `json:"body"`
	}) (*struct {
		Body assistant.TurnResponse `json:"body"`
	}, error) {
		p, authErr := principalOf(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if svc == nil {
			return nil, MapError(assistant.ErrNoModel)
		}
		resp, err := svc.Reply(ctx, assistant.TurnRequest{
			ProjectID: input.Body.ProjectID,
			ThreadID:  input.Body.ThreadID,
			UserID:    p.UserID,
			Text:      input.Body.Text,
		})
		if err != nil {
			return nil, MapError(err)
		}
		return &struct {
			Body assistant.TurnResponse `json:"body"`
		}{Body: *resp}, nil
	})
}
