package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/task"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// FunctionCall is a tool call requested by the model.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Turn is one entry of the conversation sent to the model.
type Turn struct {
	Role      Role
	Text      string
	Calls     []FunctionCall
	Responses []FunctionResponse
}

// ModelRequest is everything the model sees for one generation.
type ModelRequest struct {
	System  string
	History []Turn
	Tools   []Tool
}

// ModelResponse is either final text or a batch of tool calls.
type ModelResponse struct {
	Text  string
	Calls []FunctionCall
}

// Model generates the next assistant turn.
type Model interface {
	Generate(ctx context.Context, req ModelRequest) (*ModelResponse, error)
}

var (
	// ErrEmptyPrompt indicates a turn without text or thread.
	ErrEmptyPrompt = errors.New("empty assistant prompt")
	// ErrNoModel indicates the assistant runs without a configured model.
	ErrNoModel = errors.New("no language model configured")
)

const (
	DefaultMaxRounds = 4
	historyLimit     = 20
)

// TurnRequest is a user message addressed to the assistant.
type TurnRequest struct {
	ProjectID string `json:"project_id"`
	ThreadID  string `json:"thread_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

// ToolOutcome is one tool call made while answering.
type ToolOutcome struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
	Result Result         `json:"result"`
}

// TurnResponse is the assistant's answer.
type TurnResponse struct {
	Reply     string        `json:"reply"`
	Intent    Intent        `json:"intent"`
	Tools     []ToolOutcome `json:"tools,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Rounds    int           `json:"rounds"`
}

// Assistant runs the conversation loop: context, model, tools, reply.
type Assistant struct {
	model      Model
	dispatcher *Dispatcher
	svc        Services
	maxRounds  int
	logger     *slog.Logger
	now        func() time.Time
}

// NewAssistant creates an assistant. model may be nil, in which case Reply
// fails with ErrNoModel.
func NewAssistant(model Model, dispatcher *Dispatcher, svc Services, maxRounds int, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Assistant{
		model:      model,
		dispatcher: dispatcher,
		svc:        svc,
		maxRounds:  maxRounds,
		logger:     logger,
		now:        time.Now,
	}
}

// Reply answers one user message. The user message and the reply are both
// stored in the thread; the reply is flagged as AI.
func (a *Assistant) Reply(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.ThreadID) == "" {
		return nil, ErrEmptyPrompt
	}
	if a.model == nil {
		return nil, ErrNoModel
	}

	intent := ClassifyIntent(req.Text)
	history := a.history(ctx, req)

	if _, err := a.svc.Messages.Send(ctx, message.SendRequest{ThreadID: req.ThreadID, SenderID: req.UserID, Content: req.Text}); err != nil {
		return nil, fmt.Errorf("storing user message: %w", err)
	}
	history = append(history, Turn{Role: RoleUser, Text: req.Text})

	scope := Scope{ProjectID: req.ProjectID, UserID: req.UserID, ThreadID: req.ThreadID}
	mreq := ModelRequest{System: a.systemPrompt(ctx, req, intent), History: history, Tools: a.dispatcher.Tools()}

	resp := &TurnResponse{Intent: intent}
	for resp.Rounds < a.maxRounds {
		resp.Rounds++
		out, err := a.model.Generate(ctx, mreq)
		if err != nil {
			return nil, fmt.Errorf("generating reply: %w", err)
		}
		if len(out.Calls) == 0 {
			resp.Reply = strings.TrimSpace(out.Text)
			break
		}

		responses := make([]FunctionResponse, 0, len(out.Calls))
		for _, fc := range out.Calls {
			res := a.dispatcher.Dispatch(ctx, scope, fc.Name, fc.Args)
			resp.Tools = append(resp.Tools, ToolOutcome{Name: fc.Name, Args: fc.Args, Result: res})
			responses = append(responses, FunctionResponse{ID: fc.ID, Name: fc.Name, Response: res.Map()})
		}
		mreq.History = append(mreq.History,
			Turn{Role: RoleModel, Text: out.Text, Calls: out.Calls},
			Turn{Role: RoleUser, Responses: responses},
		)
	}
	if resp.Reply == "" {
		resp.Reply = summarize(resp.Tools)
	}

	msg, err := a.svc.Messages.Send(ctx, message.SendRequest{ThreadID: req.ThreadID, SenderID: AssistantID, Content: resp.Reply, IsAI: true})
	if err != nil {
		return resp, fmt.Errorf("storing assistant reply: %w", err)
	}
	resp.MessageID = msg.ID

	if a.svc.Audit != nil && req.ProjectID != "" {
		entry := &activity.ActivityEntry{
			ProjectID:    req.ProjectID,
			ActorID:      AssistantID,
			ActivityType: activity.TypeAssistantReplied,
			Summary:      fmt.Sprintf("assistant replied after %d round(s)", resp.Rounds),
			Details:      activity.Details(map[string]any{"intent": intent, "tools": len(resp.Tools), "thread_id": req.ThreadID}),
		}
		if err := a.svc.Audit.LogActivity(ctx, entry); err != nil {
			a.logger.Warn("recording assistant reply", "error", err)
		}
	}
	a.logger.Info("assistant replied", "thread_id", req.ThreadID, "intent", intent, "rounds", resp.Rounds, "tools", len(resp.Tools))
	return resp, nil
}

func (a *Assistant) history(ctx context.Context, req TurnRequest) []Turn {
	msgs, err := a.svc.Messages.ListVisible(ctx, req.ThreadID, req.UserID, historyLimit)
	if err != nil {
		a.logger.Warn("loading thread history", "thread_id", req.ThreadID, "error", err)
		return nil
	}
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.IsAI {
			turns = append(turns, Turn{Role: RoleModel, Text: m.Content})
			continue
		}
		turns = append(turns, Turn{Role: RoleUser, Text: fmt.Sprintf("%s: %s", m.SenderID, m.Content)})
	}
	return turns
}

// systemPrompt assembles the project context. Each part is best effort.
func (a *Assistant) systemPrompt(ctx context.Context, req TurnRequest, intent Intent) string {
	var b strings.Builder
	b.WriteString("You are the TeamDash project assistant. Answer in the user's language, briefly. ")
	b.WriteString("Use the tools to act on the project; never claim an action a tool did not confirm.\n")
	fmt.Fprintf(&b, "Current time: %s\n", a.now().UTC().Format(time.RFC3339))
	if intent == IntentDeliverable {
		b.WriteString("The user expects something to be produced or changed, prefer acting through tools.\n")
	}
	if req.ProjectID == "" {
		return b.String()
	}

	if p, err := a.svc.Projects.Get(ctx, req.ProjectID); err == nil {
		fmt.Fprintf(&b, "\nProject %q (id %s), status %s.\n", p.Title, p.ID, p.Status)
		if p.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
		}
	} else {
		a.logger.Warn("loading project context", "project_id", req.ProjectID, "error", err)
	}

	if team, err := a.svc.Staffing.ListTeam(ctx, req.ProjectID); err == nil && len(team) > 0 {
		b.WriteString("\nTeam:\n")
		for _, m := range team {
			kind := "human"
			if m.IsAI {
				kind = "AI"
			}
			fmt.Fprintf(&b, "- %s (id %s), %s %s, %s\n", m.DisplayName, m.CandidateID, m.Seniority, m.ProfileID, kind)
		}
	}

	open := []task.Status{task.StatusTodo, task.StatusInProgress, task.StatusReview}
	if tasks, err := a.svc.Tasks.List(ctx, task.ListOptions{ProjectID: req.ProjectID, Statuses: open, Limit: 20}); err == nil && len(tasks) > 0 {
		b.WriteString("\nOpen tasks:\n")
		for _, t := range tasks {
			fmt.Fprintf(&b, "- [%s] %s (id %s, %s, assignee %s)\n", t.Status, t.Title, t.ID, t.Priority, t.Assignee)
		}
	}

	if meetings, err := a.svc.Meetings.ListUpcoming(ctx, req.ProjectID, 5); err == nil && len(meetings) > 0 {
		b.WriteString("\nUpcoming meetings:\n")
		for _, m := range meetings {
			fmt.Fprintf(&b, "- %s at %s for %d min\n", m.Title, m.StartsAt.UTC().Format(time.RFC3339), m.DurationMinutes)
		}
	}
	return b.String()
}

func summarize(outcomes []ToolOutcome) string {
	if len(outcomes) == 0 {
		return "I could not produce an answer."
	}
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		parts = append(parts, o.Result.Message)
	}
	return strings.Join(parts, " ")
}
