package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const (
	userIDKey contextKey = iota
	projectIDKey
	threadIDKey
)

// Headers and _meta keys that carry the caller's scope.
const (
	ProjectHeader = "Mcp-Project-Id"
	ThreadHeader  = "Mcp-Thread-Id"
	projectMeta   = "project_id"
	threadMeta    = "thread_id"
)

func getUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

func getProjectID(ctx context.Context) string {
	v, _ := ctx.Value(projectIDKey).(string)
	return v
}

func getThreadID(ctx context.Context) string {
	v, _ := ctx.Value(threadIDKey).(string)
	return v
}

// UserResolver resolves a user ID from a bearer token.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver UserResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Protocol handshake is unauthenticated.
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			token := strings.TrimSpace(strings.TrimPrefix(extra.Header.Get("Authorization"), "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			userID, err := resolver.ResolveUser(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if userID == "" {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			ctx = context.WithValue(ctx, userIDKey, userID)
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware injects a fixed user when auth is disabled.
func noAuthMiddleware(userID string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, userIDKey, userID)
			return next(ctx, method, req)
		}
	}
}

// scopeMiddleware reads the project and thread the caller works in, from
// headers over HTTP or from _meta over stdio.
func scopeMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var projectID, threadID string

			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				projectID = extra.Header.Get(ProjectHeader)
				threadID = extra.Header.Get(ThreadHeader)
			}

			meta := safeMeta(req)
			if projectID == "" {
				projectID, _ = meta[projectMeta].(string)
			}
			if threadID == "" {
				threadID, _ = meta[threadMeta].(string)
			}

			if projectID != "" {
				ctx = context.WithValue(ctx, projectIDKey, projectID)
			}
			if threadID != "" {
				ctx = context.WithValue(ctx, threadIDKey, threadID)
			}
			return next(ctx, method, req)
		}
	}
}

// safeMeta returns the request's _meta. Notifications such as "initialized"
// carry typed nil params whose GetMeta panics.
func safeMeta(req sdkmcp.Request) (meta map[string]any) {
	defer func() {
		if recover() != nil {
			meta = nil
		}
	}()
	params := req.GetParams()
	if params == nil {
		return nil
	}
	return params.GetMeta()
}
