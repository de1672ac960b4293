// Package app assembles the TeamDash services from configuration. Both the
// CLI and the integration test server build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/config"
	"github.com/teamdash/teamdash/internal/domain/activity"
	"github.com/teamdash/teamdash/internal/domain/meeting"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/domain/task"
	"github.com/teamdash/teamdash/internal/mcp"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/reconcile"
	"github.com/teamdash/teamdash/internal/sqlite"
	"github.com/teamdash/teamdash/internal/transport"
)

// Version is reported by the HTTP API and the MCP server.
var Version = "dev"

const shutdownTimeout = 5 * time.Second

// App holds every wired service.
type App struct {
	Config config.Config
	DB     *sqlite.DB
	Bus    *realtime.Bus
	Hub    *realtime.Hub

	Projects      *project.Service
	Staffing      *staffing.Service
	Tasks         *task.Service
	Meetings      *meeting.Service
	Messages      *message.Service
	Notifications *notification.Service
	Activity      *activity.Service

	Tools     *assistant.Dispatcher
	Assistant *assistant.Assistant // nil without a model
	Feeds     *reconcile.Manager
	Auth      *transport.JWTAuth // nil when auth is disabled

	logger *slog.Logger
}

// Option adjusts how New builds the app.
type Option func(*options)

type options struct {
	model assistant.Model
}

// WithModel uses m instead of the configured Gemini model.
func WithModel(m assistant.Model) Option {
	return func(o *options) { o.model = m }
}

// New opens the database, runs migrations and wires the services.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	bus := realtime.NewBus(cfg.Realtime.BufferSize, logger)
	db.SetPublisher(bus)

	a := &App{Config: cfg, DB: db, Bus: bus, logger: logger}

	a.Activity = activity.NewService(sqlite.NewActivityRepository(db), logger)
	a.Projects = project.NewService(sqlite.NewProjectRepository(db), logger)
	a.Notifications = notification.NewService(sqlite.NewNotificationRepository(db), logger)
	a.Staffing = staffing.NewService(
		sqlite.NewAssignmentRepository(db),
		sqlite.NewCandidateRepository(db),
		a.Projects,
		a.Notifications,
		a.Activity,
		logger,
	)
	a.Tasks = task.NewService(sqlite.NewTaskRepository(db), sqlite.NewSearchRepository(db), logger)
	a.Meetings = meeting.NewService(sqlite.NewMeetingRepository(db), "", logger)
	a.Messages = message.NewService(sqlite.NewThreadRepository(db), sqlite.NewMessageRepository(db), bus, logger)

	svc := assistant.Services{
		Tasks:    a.Tasks,
		Meetings: a.Meetings,
		Projects: a.Projects,
		Staffing: a.Staffing,
		Messages: a.Messages,
		Notifier: a.Notifications,
		Audit:    a.Activity,
	}
	a.Tools = assistant.NewDispatcher(svc, logger)

	model := o.model
	if model == nil && cfg.Assistant.Enabled() {
		gemini, err := assistant.NewGemini(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("creating assistant model: %w", err)
		}
		model = gemini
	}
	if model != nil {
		a.Assistant = assistant.NewAssistant(model, a.Tools, svc, cfg.Assistant.MaxRounds, logger)
	}

	a.Feeds = reconcile.NewManager(bus, a.Staffing, a.Projects, bus, logger)
	a.Hub = realtime.NewHub(bus, authorizeTopic, logger)

	if cfg.Auth.Enabled {
		a.Auth, err = transport.NewJWTAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return a, nil
}

// privateTables carry rows only some users may read; their changes reach
// clients through feeds and typed endpoints, never raw.
var privateTables = map[string]bool{
	realtime.TableTopic("notifications"): true,
	realtime.TableTopic("messages"):      true,
	realtime.TableTopic("threads"):       true,
}

// authorizeTopic keeps candidate feeds private to their candidate.
func authorizeTopic(r *http.Request, topic string) bool {
	p, ok := transport.PrincipalFromContext(r.Context())
	if !ok || topic == realtime.AllTopics || privateTables[topic] {
		return false
	}
	if candidateID, isFeed := strings.CutPrefix(topic, realtime.FeedTopic("")); isFeed {
		return candidateID != "" && candidateID == p.CandidateID
	}
	return true
}

// LocalPrincipal is the caller injected when auth is disabled.
func (a *App) LocalPrincipal() transport.Principal {
	l := a.Config.Auth.Local
	return transport.Principal{
		UserID:      l.UserID,
		CandidateID: l.CandidateID,
		ProfileID:   l.ProfileID,
		Seniority:   staffing.Seniority(l.Seniority),
		Source:      "local",
	}
}

// MCPServer builds an MCP server over the tool catalog.
func (a *App) MCPServer(mode string) *sdkmcp.Server {
	cfg := mcp.Config{
		Dispatcher:    a.Tools,
		AuthEnabled:   a.Auth != nil,
		TransportMode: mode,
		LocalUser:     a.Config.Auth.Local.UserID,
		Version:       Version,
		Logger:        a.logger,
	}
	if a.Auth != nil {
		cfg.Resolver = a.Auth
	}
	return mcp.NewServer(cfg)
}

// Handler is the full HTTP surface.
func (a *App) Handler() http.Handler {
	services := transport.Services{
		Tools:         a.Tools,
		Feeds:         a.Feeds,
		Staffing:      a.Staffing,
		Notifications: a.Notifications,
		Projects:      a.Projects,
		Seats:         a.Staffing,
		Threads:       a.Messages,
	}
	if a.Assistant != nil {
		services.Assistant = a.Assistant
	}
	return transport.NewServer(transport.Config{
		Services: services,
		Auth:     a.Auth,
		Local:    a.LocalPrincipal(),
		Hub:      a.Hub,
		MCP:      mcp.NewHTTPHandler(a.MCPServer("http")),
		Version:  Version,
		Logger:   a.logger,
	})
}

// Serve runs the HTTP server and the websocket hub until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Server.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Hub.Run(ctx)
	})
	g.Go(func() error {
		a.logger.Info("server listening", "addr", srv.Addr, "auth", a.Auth != nil, "assistant", a.Assistant != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close stops the feeds and the bus, then closes the database.
func (a *App) Close() error {
	a.Feeds.Shutdown()
	a.Bus.Close()
	return a.DB.Close()
}

func ensureDBDir(path string) error {
	if path == "" || strings.Contains(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
