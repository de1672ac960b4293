package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/assistant"
)

type recordingDispatcher struct {
	*assistant.Dispatcher

	mu     sync.Mutex
	scopes []assistant.Scope
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, scope assistant.Scope, name string, args map[string]any) assistant.Result {
	r.mu.Lock()
	r.scopes = append(r.scopes, scope)
	r.mu.Unlock()
	return r.Dispatcher.Dispatch(ctx, scope, name, args)
}

func (r *recordingDispatcher) lastScope() assistant.Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scopes[len(r.scopes)-1]
}

type staticResolver map[string]string

func (s staticResolver) ResolveUser(_ context.Context, token string) (string, error) {
	return s[token], nil
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(cfg)
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func decodeResult(t *testing.T, res *sdkmcp.CallToolResult) assistant.Result {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	var out assistant.Result
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestServer_ListsCatalog(t *testing.T) {
	d := &recordingDispatcher{Dispatcher: assistant.NewDispatcher(assistant.Services{}, nil)}
	cs := connect(t, Config{Dispatcher: d, TransportMode: "stdio"})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, len(assistant.Catalog()))

	byName := map[string]*sdkmcp.Tool{}
	for _, tool := range res.Tools {
		byName[tool.Name] = tool
	}
	addTask := byName["add_task"]
	require.NotNil(t, addTask)
	require.NotNil(t, addTask.Annotations)
	require.False(t, addTask.Annotations.ReadOnlyHint)
	require.True(t, byName["list_tasks"].Annotations.ReadOnlyHint)

	schema, err := json.Marshal(addTask.InputSchema)
	require.NoError(t, err)
	require.JSONEq(t, `["title","assignee"]`, requiredOf(t, schema))
}

func requiredOf(t *testing.T, schema []byte) string {
	t.Helper()
	var s struct {
		Required json.RawMessage `json:"required"`
	}
	require.NoError(t, json.Unmarshal(schema, &s))
	return string(s.Required)
}

func TestServer_CallToolUsesMetaScope(t *testing.T) {
	d := &recordingDispatcher{Dispatcher: assistant.NewDispatcher(assistant.Services{}, nil)}
	cs := connect(t, Config{Dispatcher: d, TransportMode: "stdio", LocalUser: "user-1"})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Meta:      sdkmcp.Meta{"project_id": "proj-1", "thread_id": "thread-1"},
		Name:      "navigate_to",
		Arguments: map[string]any{"page": "kanban"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := decodeResult(t, res)
	require.True(t, out.Success)
	require.Equal(t, "/projects/proj-1/kanban", out.Payload["navigate"])
	require.Equal(t, assistant.Scope{ProjectID: "proj-1", UserID: "user-1", ThreadID: "thread-1"}, d.lastScope())
}

func TestServer_ValidationFailureIsToolError(t *testing.T) {
	d := &recordingDispatcher{Dispatcher: assistant.NewDispatcher(assistant.Services{}, nil)}
	cs := connect(t, Config{Dispatcher: d, TransportMode: "stdio"})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "explain_feature",
		Arguments: map[string]any{"feature": "teleportation"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)

	out := decodeResult(t, res)
	require.False(t, out.Success)
	require.Equal(t, assistant.CodeValidationFailed, out.Code)
	require.NotEmpty(t, out.ValidationErrors)
	require.Equal(t, DefaultLocalUser, d.lastScope().UserID)
}

func TestServer_AuthIgnoredOverStdio(t *testing.T) {
	d := &recordingDispatcher{Dispatcher: assistant.NewDispatcher(assistant.Services{}, nil)}
	cs := connect(t, Config{
		Dispatcher:    d,
		TransportMode: "stdio",
		AuthEnabled:   true,
		Resolver:      staticResolver{},
	})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "explain_feature",
		Arguments: map[string]any{"feature": "kanban"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
}

func TestServer_AuthRequiresHeaders(t *testing.T) {
	d := &recordingDispatcher{Dispatcher: assistant.NewDispatcher(assistant.Services{}, nil)}
	cs := connect(t, Config{
		Dispatcher:    d,
		TransportMode: "http",
		AuthEnabled:   true,
		Resolver:      staticResolver{"good": "user-1"},
	})

	// In-memory transports carry no HTTP headers.
	_, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "explain_feature",
		Arguments: map[string]any{"feature": "kanban"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}

func TestServer_ReadsDocs(t *testing.T) {
	d := &recordingDispatcher{Dispatcher: assistant.NewDispatcher(assistant.Services{}, nil)}
	cs := connect(t, Config{Dispatcher: d, TransportMode: "stdio"})

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "teamdash://docs/staffing"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "recherche")
}
