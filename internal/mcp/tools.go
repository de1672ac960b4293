package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/teamdash/teamdash/internal/assistant"
)

func registerTools(server *sdkmcp.Server, d ToolDispatcher, logger *slog.Logger) {
	for _, tool := range d.Tools() {
		server.AddTool(&sdkmcp.Tool{
			Name:        string(tool.Name),
			Description: tool.Description,
			InputSchema: tool.Parameters,
			Annotations: annotations(tool),
		}, toolHandler(d, string(tool.Name), logger))
	}
}

func annotations(tool assistant.Tool) *sdkmcp.ToolAnnotations {
	return &sdkmcp.ToolAnnotations{
		Title:        string(tool.Name),
		ReadOnlyHint: !tool.Writes,
	}
}

// toolHandler routes an MCP tool call through the dispatcher. Tool failures
// are results with IsError set, never protocol errors, so the calling agent
// sees the validation messages.
func toolHandler(d ToolDispatcher, name string, logger *slog.Logger) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		args := map[string]any{}
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return resultOf(assistant.Result{
					Message:          "The arguments are invalid.",
					Error:            "arguments must be a JSON object",
					Code:             assistant.CodeValidationFailed,
					ValidationErrors: []string{"arguments must be a JSON object"},
				})
			}
		}

		scope := assistant.Scope{
			ProjectID: getProjectID(ctx),
			UserID:    getUserID(ctx),
			ThreadID:  getThreadID(ctx),
		}
		res := d.Dispatch(ctx, scope, name, args)
		if !res.Success {
			logger.Debug("mcp tool failed", "tool", name, "code", res.Code, "error", res.Error)
		}
		return resultOf(res)
	}
}

func resultOf(res assistant.Result) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: !res.Success,
	}, nil
}
