package reconcile

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/realtime"
)

// Broadcaster announces feed revisions to remote clients.
type Broadcaster interface {
	Broadcast(topic, event string, payload any) error
}

// RevisionEvent is the broadcast name for feed revisions.
const RevisionEvent = "revision"

// Revision is the payload broadcast on a candidate's feed topic.
type Revision struct {
	Revision     uint64 `json:"revision"`
	LastDeletion uint64 `json:"last_deletion"`
	Assignments  int    `json:"assignments"`
	Projects     int    `json:"projects"`
}

// Manager owns one session per logged-in candidate.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	bus      Subscriber
	loader   Loader
	projects ProjectFetcher
	notify   Broadcaster
	logger   *slog.Logger
}

// entry pairs a session with a channel closed once its first Start returns.
type entry struct {
	sess  *Session
	ready chan struct{}
}

// NewManager creates a manager. notify may be nil.
func NewManager(bus Subscriber, loader Loader, projects ProjectFetcher, notify Broadcaster, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		sessions: make(map[string]*entry),
		bus:      bus,
		loader:   loader,
		projects: projects,
		notify:   notify,
		logger:   logger,
	}
}

// Open returns the running session for the candidate, starting one if
// needed. Concurrent callers wait for the first Start to finish. A session
// whose identity no longer matches is rebound.
func (m *Manager) Open(ctx context.Context, identity staffing.Identity) (*Session, error) {
	m.mu.Lock()
	e, ok := m.sessions[identity.CandidateID]
	if !ok {
		sess := NewSession(identity, m.bus, m.loader, m.projects, m.logger)
		sess.OnCommit(m.announce)
		e = &entry{sess: sess, ready: make(chan struct{})}
		m.sessions[identity.CandidateID] = e
	}
	m.mu.Unlock()

	if !ok {
		err := e.sess.Start(ctx)
		close(e.ready)
		if err != nil {
			return e.sess, err
		}
		m.logger.Info("reconcile session started", "candidate_id", identity.CandidateID)
		return e.sess, nil
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return e.sess, ctx.Err()
	}
	if e.sess.Identity() != identity {
		if err := e.sess.Rebind(ctx, identity); err != nil {
			return e.sess, err
		}
	}
	return e.sess, nil
}

// Get returns the candidate's session, if any.
func (m *Manager) Get(candidateID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[candidateID]
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Close stops and forgets the candidate's session.
func (m *Manager) Close(candidateID string) {
	m.mu.Lock()
	e, ok := m.sessions[candidateID]
	delete(m.sessions, candidateID)
	m.mu.Unlock()
	if ok {
		e.sess.Stop()
	}
}

// Shutdown stops every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.sess.Stop()
		}()
	}
	wg.Wait()
}

func (m *Manager) announce(candidateID string, s State) {
	if m.notify == nil {
		return
	}
	payload := Revision{
		Revision:     s.Revision,
		LastDeletion: s.LastDeletion,
		Assignments:  len(s.Assignments),
		Projects:     len(s.Projects),
	}
	if err := m.notify.Broadcast(realtime.FeedTopic(candidateID), RevisionEvent, payload); err != nil {
		m.logger.Warn("broadcasting feed revision", "candidate_id", candidateID, "error", err)
	}
}
