package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/reconcile"
)

// BasePath prefixes the REST API.
const BasePath = "/v1"

// ToolDispatcher runs catalog tools.
type ToolDispatcher interface {
	Tools() []assistant.Tool
	Dispatch(ctx context.Context, scope assistant.Scope, name string, args map[string]any) assistant.Result
}

// AssistantService answers a chat turn.
type AssistantService interface {
	Reply(ctx context.Context, req assistant.TurnRequest) (*assistant.TurnResponse, error)
}

// FeedService opens the reconciled feed of a candidate.
type FeedService interface {
	Open(ctx context.Context, identity staffing.Identity) (*reconcile.Session, error)
}

// StaffingService is the candidate side of the booking flow.
type StaffingService interface {
	Accept(ctx context.Context, id string, candidate staffing.Identity) (*staffing.Assignment, error)
	Decline(ctx context.Context, id string, candidate staffing.Identity) (*staffing.Assignment, error)
}

// NotificationService reads and updates a candidate's notifications.
type NotificationService interface {
	List(ctx context.Context, opts notification.ListOptions) ([]notification.Notification, error)
	MarkRead(ctx context.Context, candidateID, id string) (*notification.Notification, error)
	Archive(ctx context.Context, candidateID, id string) (*notification.Notification, error)
}

// Services groups what the API serves. Assistant may be nil when no model is
// configured.
type Services struct {
	Tools         ToolDispatcher
	Assistant     AssistantService
	Feeds         FeedService
	Staffing      StaffingService
	Notifications NotificationService
	Projects      ProjectService
	Seats         SeatService
	Threads       ThreadService
}

// Config wires the HTTP server.
type Config struct {
	Services Services
	// Auth enables bearer authentication; nil injects Local on every request.
	Auth    *JWTAuth
	Local   Principal
	Hub     http.Handler
	MCP     http.Handler
	Version string
	Logger  *slog.Logger
}

// NewServer creates the HTTP router: REST API under /v1, JSON-RPC on /rpc,
// the websocket hub on /ws and, when configured, MCP on /mcp.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if cfg.Auth != nil {
		r.Use(AuthMiddleware(cfg.Auth))
	} else {
		r.Use(LocalMiddleware(cfg.Local))
	}

	hcfg := huma.DefaultConfig("TeamDash API", version)
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "/docs"
	api := humachi.New(r, hcfg)
	group := huma.NewGroup(api, BasePath)

	registerHealth(api)
	registerTools(group, cfg.Services.Tools)
	registerFeed(group, cfg.Services.Feeds)
	registerAssignments(group, cfg.Services.Staffing)
	registerNotifications(group, cfg.Services.Notifications)
	registerProjects(group, cfg.Services.Projects)
	registerSeats(group, cfg.Services.Seats, cfg.Services.Projects)
	registerThreads(group, cfg.Services.Threads, cfg.Services.Projects)
	registerAssistant(group, cfg.Services.Assistant)

	srv := &rpcServer{tools: cfg.Services.Tools, logger: logger}
	r.Post("/rpc", srv.handleRPC)

	if cfg.Hub != nil {
		r.Handle("/ws", cfg.Hub)
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Websocket connections outlive the request log line.
			if websocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// scopeOf builds the tool scope of a request. The project comes from the
// project_id query parameter or the X-Project-Id header.
func scopeOf(ctx context.Context, r *http.Request) assistant.Scope {
	scope := assistant.Scope{
		ProjectID: strings.TrimSpace(r.URL.Query().Get("project_id")),
		ThreadID:  strings.TrimSpace(r.URL.Query().Get("thread_id")),
	}
	if scope.ProjectID == "" {
		scope.ProjectID = strings.TrimSpace(r.Header.Get("X-Project-Id"))
	}
	if scope.ThreadID == "" {
		scope.ThreadID = strings.TrimSpace(r.Header.Get("X-Thread-Id"))
	}
	if p, ok := PrincipalFromContext(ctx); ok {
		scope.UserID = p.UserID
	}
	return scope
}
