package transport

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
)

// ProjectService is the owner side of project lifecycle.
type ProjectService interface {
	Get(ctx context.Context, id string) (*project.Project, error)
	Archive(ctx context.Context, id string) (*project.Project, error)
	Delete(ctx context.Context, id string) (*project.Project, error)
}

// SeatService is the owner side of the booking flow.
type SeatService interface {
	Get(ctx context.Context, id string) (*staffing.Assignment, error)
	UpdateRequirements(ctx context.Context, id string, upd staffing.RequirementsUpdate) (*staffing.Assignment, error)
	Expire(ctx context.Context, id string) (*staffing.Assignment, error)
	Delete(ctx context.Context, id string) error
}

// ThreadService manages message threads.
type ThreadService interface {
	GetThread(ctx context.Context, id string) (*message.Thread, error)
	ListThreads(ctx context.Context, projectID, userID string) ([]message.Thread, error)
	ChangeType(ctx context.Context, id string, typ message.ThreadType, participants []message.Participant) (*message.Thread, error)
	Typing(threadID, userID string) error
}

// ownedProject loads a visible project and checks the caller owns it.
func ownedProject(ctx context.Context, projects ProjectService, id string) (*project.Project, huma.StatusError) {
	p, authErr := principalOf(ctx)
	if authErr != nil {
		return nil, authErr
	}
	proj, err := projects.Get(ctx, id)
	if err != nil {
		return nil, MapError(err)
	}
	if proj.Hidden() {
		return nil, MapError(project.ErrProjectNotFound)
	}
	if proj.OwnerID != p.UserID {
		return nil, newAPIError(http.StatusForbidden, "not_owner", "only the project owner can do this", nil)
	}
	return proj, nil
}

type projectPath struct {
	ID string `path:"id"`
}

type projectOutput struct {
	Body project.Project `json:"body"`
}

func registerProjects(api huma.API, projects ProjectService) {
	if projects == nil {
		return
	}
	hide := func(op func(context.Context, string) (*project.Project, error)) func(context.Context, *projectPath) (*projectOutput, error) {
		return func(ctx context.Context, input *projectPath) (*projectOutput, error) {
			if _, authErr := ownedProject(ctx, projects, input.ID); authErr != nil {
				return nil, authErr
			}
			proj, err := op(ctx, input.ID)
			if err != nil {
				return nil, MapError(err)
			}
			return &projectOutput{Body: *proj}, nil
		}
	}

	huma.Register(api, huma.Operation{
		OperationID: "archive-project",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/archive",
		Summary:     "Archive a project",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, hide(projects.Archive))

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{id}",
		Summary:     "Soft-delete a project",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, hide(projects.Delete))
}

type requirementsInput struct {
	ID   string `path:"id"`
	Body struct {
		ProfileID  *string  `json:"profile_id,omitempty"`
		Seniority  *string  `json:"seniority,omitempty" enum:"junior,intermediate,senior,expert"`
		Languages  []string `json:"languages,omitempty"`
		Expertises []string `json:"expertises,omitempty"`
	}
}

func registerSeats(api huma.API, seats SeatService, projects ProjectService) {
	if seats == nil || projects == nil {
		return
	}
	// owned loads the seat and checks the caller owns its project.
	owned := func(ctx context.Context, id string) huma.StatusError {
		seat, err := seats.Get(ctx, id)
		if err != nil {
			return MapError(err)
		}
		_, authErr := ownedProject(ctx, projects, seat.ProjectID)
		return authErr
	}

	huma.Register(api, huma.Operation{
		OperationID: "update-assignment",
		Method:      http.MethodPatch,
		Path:        "/assignments/{id}",
		Summary:     "Change what a seat asks for",
		Description: "A bound seat is released back to recherche and its candidate is notified.",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *requirementsInput) (*assignmentOutput, error) {
		if authErr := owned(ctx, input.ID); authErr != nil {
			return nil, authErr
		}
		upd := staffing.RequirementsUpdate{
			ProfileID:  input.Body.ProfileID,
			Languages:  input.Body.Languages,
			Expertises: input.Body.Expertises,
		}
		if input.Body.Seniority != nil {
			s := staffing.Seniority(*input.Body.Seniority)
			upd.Seniority = &s
		}
		a, err := seats.UpdateRequirements(ctx, input.ID, upd)
		if err != nil {
			return nil, MapError(err)
		}
		return &assignmentOutput{Body: *a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "expire-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/expire",
		Summary:     "Close a seat nobody took",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *assignmentPath) (*assignmentOutput, error) {
		if authErr := owned(ctx, input.ID); authErr != nil {
			return nil, authErr
		}
		a, err := seats.Expire(ctx, input.ID)
		if err != nil {
			return nil, MapError(err)
		}
		return &assignmentOutput{Body: *a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-assignment",
		Method:        http.MethodDelete,
		Path:          "/assignments/{id}",
		Summary:       "Remove a seat",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *assignmentPath) (*struct{}, error) {
		if authErr := owned(ctx, input.ID); authErr != nil {
			return nil, authErr
		}
		if err := seats.Delete(ctx, input.ID); err != nil {
			return nil, MapError(err)
		}
		return nil, nil
	})
}

type threadPath struct {
	ID string `path:"id"`
}

type threadOutput struct {
	Body message.Thread `json:"body"`
}

type threadTypeInput struct {
	ID   string `path:"id"`
	Body struct {
		Type         string                `json:"type" enum:"public,private"`
		Participants []message.Participant `json:"participants,omitempty"`
	}
}

func registerThreads(api huma.API, threads ThreadService, projects ProjectService) {
	if threads == nil || projects == nil {
		return
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-threads",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/threads",
		Summary:     "List the project's threads the caller can read",
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body struct {
			Threads []message.Thread `json:"threads"`
		} `json:"body"`
	}, error) {
		p, authErr := principalOf(ctx)
		if authErr != nil {
			return nil, authErr
		}
		list, err := threads.ListThreads(ctx, input.ID, p.UserID)
		if err != nil {
			return nil, MapError(err)
		}
		out := &struct {
			Body struct {
				Threads []message.Thread `json:"threads"`
			} `json:"body"`
		}{}
		out.Body.Threads = list
		if out.Body.Threads == nil {
			out.Body.Threads = []message.Thread{}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-thread-type",
		Method:      http.MethodPut,
		Path:        "/threads/{id}/type",
		Summary:     "Switch a thread between public and private",
		Description: "Messages already sent keep the visibility they were stored with.",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *threadTypeInput) (*threadOutput, error) {
		p, authErr := principalOf(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := threads.GetThread(ctx, input.ID)
		if err != nil {
			return nil, MapError(err)
		}
		if t.CreatedBy != p.UserID {
			if _, authErr := ownedProject(ctx, projects, t.ProjectID); authErr != nil {
				return nil, authErr
			}
		}
		t, err = threads.ChangeType(ctx, input.ID, message.ThreadType(input.Body.Type), input.Body.Participants)
		if err != nil {
			return nil, MapError(err)
		}
		return &threadOutput{Body: *t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "thread-typing",
		Method:        http.MethodPost,
		Path:          "/threads/{id}/typing",
		Summary:       "Tell the thread's subscribers the caller is typing",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *threadPath) (*struct{}, error) {
		p, authErr := principalOf(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := threads.GetThread(ctx, input.ID)
		if err != nil {
			return nil, MapError(err)
		}
		if t.Type == message.ThreadPrivate && !t.HasParticipant(p.UserID) {
			return nil, MapError(message.ErrNotParticipant)
		}
		if err := threads.Typing(t.ID, p.UserID); err != nil {
			return nil, MapError(err)
		}
		return nil, nil
	})
}
