package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/teamdash/teamdash/internal/assistant"
)

// ToolDispatcher runs catalog tools on behalf of a caller.
type ToolDispatcher interface {
	Tools() []assistant.Tool
	Dispatch(ctx context.Context, scope assistant.Scope, name string, args map[string]any) assistant.Result
}

// DefaultLocalUser is the user injected when auth is off.
const DefaultLocalUser = "local"

// Config contains server configuration.
type Config struct {
	Dispatcher    ToolDispatcher
	Resolver      UserResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	LocalUser     string
	Version       string
	Logger        *slog.Logger
}

// NewServer creates an MCP server exposing the tool catalog.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	localUser := cfg.LocalUser
	if localUser == "" {
		localUser = DefaultLocalUser
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "teamdash",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	// Stdio is a local process; auth only applies over HTTP.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(localUser))
	}
	server.AddReceivingMiddleware(scopeMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Dispatcher, logger)

	return server
}
