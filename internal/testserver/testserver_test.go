package testserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/teamdash/teamdash/internal/app"
	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/mcp"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/reconcile"
	"github.com/teamdash/teamdash/internal/transport"
)

const owner = "owner-1"

func seeded(t *testing.T, opts ...app.Option) (*TestServer, *app.SeedResult) {
	t.Helper()
	ts := New(t, opts...)
	res, err := ts.App.Seed(context.Background(), owner)
	require.NoError(t, err)
	return ts, res
}

func candidatePrincipal(t *testing.T, ts *TestServer, candidateID string) transport.Principal {
	t.Helper()
	c, err := ts.App.Staffing.GetCandidate(context.Background(), candidateID)
	require.NoError(t, err)
	return transport.Principal{
		UserID:      "user-" + c.ID,
		CandidateID: c.ID,
		ProfileID:   c.ProfileID,
		Seniority:   c.Seniority,
	}
}

func TestFeed_RevisionPushedOnAcceptance(t *testing.T) {
	ts, res := seeded(t)
	lucas := candidatePrincipal(t, ts, res.Candidates[1])
	token := ts.Token(t, lucas)
	seat := res.Assignments[2]

	var feed transport.FeedResponse
	require.Equal(t, http.StatusOK, ts.Do(t, token, http.MethodGet, "/v1/feed", nil, &feed))
	require.Len(t, feed.Projects, 1)
	require.Equal(t, res.ProjectID, feed.Projects[0].Project.ID)
	require.Len(t, feed.Projects[0].Assignments, 1)
	require.Equal(t, seat, feed.Projects[0].Assignments[0].ID)

	conn := ts.Dial(t, token)
	Subscribe(t, conn, realtime.FeedTopic(lucas.CandidateID))

	require.Equal(t, http.StatusOK, ts.Do(t, token, http.MethodPost, "/v1/assignments/"+seat+"/accept", nil, nil))

	ev := NextEvent(t, conn, func(ev realtime.Event) bool {
		return ev.Kind == realtime.KindBroadcast && ev.Name == reconcile.RevisionEvent
	})
	var rev reconcile.Revision
	require.NoError(t, json.Unmarshal(ev.Payload, &rev))
	require.Greater(t, rev.Revision, feed.Revision)
	require.Equal(t, 1, rev.Assignments)

	var after transport.FeedResponse
	require.Equal(t, http.StatusOK, ts.Do(t, token, http.MethodGet, "/v1/feed", nil, &after))
	require.Len(t, after.Projects, 1)
	require.NotNil(t, after.Projects[0].Assignments[0].CandidateID)
	require.Equal(t, lucas.CandidateID, *after.Projects[0].Assignments[0].CandidateID)
}

func TestFeed_OtherCandidateTopicForbidden(t *testing.T) {
	ts, res := seeded(t)
	lucas := candidatePrincipal(t, ts, res.Candidates[1])

	conn := ts.Dial(t, ts.Token(t, lucas))
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": realtime.FeedTopic(res.Candidates[0])}))
	ev := NextEvent(t, conn, func(realtime.Event) bool { return true })
	require.Equal(t, realtime.KindError, ev.Kind)
	require.Equal(t, "forbidden", ev.Name)
}

func TestRPC_ToolsOverJSONRPC(t *testing.T) {
	ts, res := seeded(t)
	token := ts.Token(t, transport.Principal{UserID: owner})

	var list struct {
		Result transport.ToolsResponse `json:"result"`
	}
	body := map[string]any{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}
	require.Equal(t, http.StatusOK, ts.Do(t, token, http.MethodPost, "/rpc", body, &list))
	require.Len(t, list.Result.Tools, len(assistant.Catalog()))

	var team struct {
		Result assistant.Result `json:"result"`
		Error  *transport.RPCError `json:"error"`
	}
	body = map[string]any{"jsonrpc": "2.0", "id": 2, "method": "list_team"}
	require.Equal(t, http.StatusOK, ts.Do(t, token, http.MethodPost, "/rpc?project_id="+res.ProjectID, body, &team))
	require.Nil(t, team.Error)
	require.True(t, team.Result.Success)
	require.EqualValues(t, 2, team.Result.Payload["count"])
}

// scriptedModel asks for the team once, then answers.
type scriptedModel struct {
	mu    sync.Mutex
	calls int
}

func (m *scriptedModel) Generate(_ context.Context, req assistant.ModelRequest) (*assistant.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls == 1 {
		return &assistant.ModelResponse{Calls: []assistant.FunctionCall{{Name: "list_team", Args: map[string]any{}}}}, nil
	}
	return &assistant.ModelResponse{Text: "L'équipe compte deux membres."}, nil
}

func TestAssistant_TurnRunsTools(t *testing.T) {
	model := &scriptedModel{}
	ts, res := seeded(t, app.WithModel(model))
	token := ts.Token(t, transport.Principal{UserID: owner})

	var out assistant.TurnResponse
	req := transport.AssistantRequest{ProjectID: res.ProjectID, ThreadID: res.ThreadID, Text: "Qui est dans l'équipe ?"}
	require.Equal(t, http.StatusOK, ts.Do(t, token, http.MethodPost, "/v1/assistant", req, &out))

	require.Equal(t, "L'équipe compte deux membres.", out.Reply)
	require.Equal(t, 2, out.Rounds)
	require.Len(t, out.Tools, 1)
	require.Equal(t, "list_team", out.Tools[0].Name)
	require.True(t, out.Tools[0].Result.Success)
	require.NotEmpty(t, out.MessageID)
}

func TestAssistant_EmptyPromptRejected(t *testing.T) {
	ts, res := seeded(t, app.WithModel(&scriptedModel{}))
	token := ts.Token(t, transport.Principal{UserID: owner})

	req := map[string]any{"project_id": res.ProjectID, "thread_id": "", "text": "bonjour"}
	require.Equal(t, http.StatusBadRequest, ts.Do(t, token, http.MethodPost, "/v1/assistant", req, nil))
}

type headerTransport struct {
	header http.Header
	base   http.RoundTripper
}

func (h headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range h.header {
		r.Header[k] = v
	}
	return h.base.RoundTrip(r)
}

func TestMCP_StreamableHTTP(t *testing.T) {
	ts, res := seeded(t)
	ctx := context.Background()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+ts.Token(t, transport.Principal{UserID: owner}))
	header.Set(mcp.ProjectHeader, res.ProjectID)
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "e2e", Version: "test"}, nil)
	cs, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: headerTransport{header: header, base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, len(assistant.Catalog()))

	out, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_open_assignments", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, out.IsError)
	require.Len(t, out.Content, 1)
	text, ok := out.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)

	var result assistant.Result
	require.NoError(t, json.Unmarshal([]byte(text.Text), &result))
	require.True(t, result.Success)
	require.EqualValues(t, 1, result.Payload["count"])
}

func errorCode(body map[string]any) string {
	apiErr, _ := body["error"].(map[string]any)
	code, _ := apiErr["code"].(string)
	return code
}

func TestSeats_OwnerManagesSeats(t *testing.T) {
	ts, res := seeded(t)
	lucas := candidatePrincipal(t, ts, res.Candidates[1])
	lucasToken := ts.Token(t, lucas)
	ownerToken := ts.Token(t, transport.Principal{UserID: owner})
	seat := res.Assignments[2]

	var body map[string]any
	status := ts.Do(t, lucasToken, http.MethodPatch, "/v1/assignments/"+seat, map[string]any{"seniority": "senior"}, &body)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "not_owner", errorCode(body))

	var updated staffing.Assignment
	require.Equal(t, http.StatusOK, ts.Do(t, ownerToken, http.MethodPatch, "/v1/assignments/"+seat, map[string]any{"seniority": "senior"}, &updated))
	require.Equal(t, staffing.SenioritySenior, updated.Seniority)
	require.Equal(t, staffing.BookingSearch, updated.BookingStatus)

	var feed transport.FeedResponse
	require.Equal(t, http.StatusOK, ts.Do(t, lucasToken, http.MethodGet, "/v1/feed", nil, &feed))
	require.Empty(t, feed.Projects)

	var expired staffing.Assignment
	require.Equal(t, http.StatusOK, ts.Do(t, ownerToken, http.MethodPost, "/v1/assignments/"+seat+"/expire", nil, &expired))
	require.Equal(t, staffing.BookingExpired, expired.BookingStatus)
	require.Equal(t, http.StatusConflict, ts.Do(t, ownerToken, http.MethodPost, "/v1/assignments/"+seat+"/expire", nil, nil))

	require.Equal(t, http.StatusNoContent, ts.Do(t, ownerToken, http.MethodDelete, "/v1/assignments/"+seat, nil, nil))
	require.Equal(t, http.StatusNotFound, ts.Do(t, ownerToken, http.MethodDelete, "/v1/assignments/"+seat, nil, nil))
}

func TestProjects_ArchiveHidesFromFeed(t *testing.T) {
	ts, res := seeded(t)
	marie := candidatePrincipal(t, ts, res.Candidates[0])
	marieToken := ts.Token(t, marie)
	ownerToken := ts.Token(t, transport.Principal{UserID: owner})

	var feed transport.FeedResponse
	require.Equal(t, http.StatusOK, ts.Do(t, marieToken, http.MethodGet, "/v1/feed", nil, &feed))
	require.Len(t, feed.Projects, 1)

	require.Equal(t, http.StatusForbidden, ts.Do(t, marieToken, http.MethodPost, "/v1/projects/"+res.ProjectID+"/archive", nil, nil))

	var archived project.Project
	require.Equal(t, http.StatusOK, ts.Do(t, ownerToken, http.MethodPost, "/v1/projects/"+res.ProjectID+"/archive", nil, &archived))
	require.NotNil(t, archived.ArchivedAt)

	require.Eventually(t, func() bool {
		var after transport.FeedResponse
		ts.Do(t, marieToken, http.MethodGet, "/v1/feed", nil, &after)
		return len(after.Projects) == 0
	}, 3*time.Second, 20*time.Millisecond)

	require.Equal(t, http.StatusNotFound, ts.Do(t, ownerToken, http.MethodDelete, "/v1/projects/"+res.ProjectID, nil, nil))
}

func TestThreads_TypingAndVisibility(t *testing.T) {
	ts, res := seeded(t)
	lucasToken := ts.Token(t, candidatePrincipal(t, ts, res.Candidates[1]))
	ownerToken := ts.Token(t, transport.Principal{UserID: owner})

	var list struct {
		Threads []message.Thread `json:"threads"`
	}
	require.Equal(t, http.StatusOK, ts.Do(t, ownerToken, http.MethodGet, "/v1/projects/"+res.ProjectID+"/threads", nil, &list))
	require.Len(t, list.Threads, 1)
	require.Equal(t, res.ThreadID, list.Threads[0].ID)

	require.Equal(t, http.StatusOK, ts.Do(t, lucasToken, http.MethodGet, "/v1/projects/"+res.ProjectID+"/threads", nil, &list))
	require.Empty(t, list.Threads)
	require.Equal(t, http.StatusForbidden, ts.Do(t, lucasToken, http.MethodPost, "/v1/threads/"+res.ThreadID+"/typing", nil, nil))

	conn := ts.Dial(t, ownerToken)
	topic := message.ThreadTopic(res.ThreadID)
	Subscribe(t, conn, topic)

	require.Equal(t, http.StatusNoContent, ts.Do(t, ownerToken, http.MethodPost, "/v1/threads/"+res.ThreadID+"/typing", nil, nil))
	ev := NextEvent(t, conn, func(ev realtime.Event) bool { return ev.Topic == topic && ev.Kind == realtime.KindBroadcast })
	require.Equal(t, "typing", ev.Name)
	require.JSONEq(t, `{"user_id":"`+owner+`"}`, string(ev.Payload))

	var changed message.Thread
	require.Equal(t, http.StatusOK, ts.Do(t, ownerToken, http.MethodPut, "/v1/threads/"+res.ThreadID+"/type", map[string]any{"type": "public"}, &changed))
	require.Equal(t, message.ThreadPublic, changed.Type)
	require.Empty(t, changed.Participants)

	require.Equal(t, http.StatusNoContent, ts.Do(t, lucasToken, http.MethodPost, "/v1/threads/"+res.ThreadID+"/typing", nil, nil))
}
