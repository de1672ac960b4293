package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/realtime"
)

// Subscriber opens bus subscriptions.
type Subscriber interface {
	Subscribe(topic string) *realtime.Subscription
}

// Loader lists the assignments matching a candidate.
type Loader interface {
	ListForCandidate(ctx context.Context, id staffing.Identity) ([]staffing.Assignment, error)
}

// ProjectFetcher looks up parent projects.
type ProjectFetcher interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// CommitFunc observes every committed state of a session.
type CommitFunc func(candidateID string, s State)

const fetchConcurrency = 4

// Session keeps one candidate's visible set in step with the change stream.
// All writes to the set go through the reducer or Refresh and are committed
// under mu; Snapshot hands out the committed value, which is never mutated.
type Session struct {
	mu         sync.Mutex
	refreshMu  sync.Mutex
	state      State
	identity   staffing.Identity
	gen        uint64
	started    bool
	suspended  bool
	stale      bool
	refreshing bool
	pending    []Event
	subs       []*realtime.Subscription

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	bus      Subscriber
	loader   Loader
	projects ProjectFetcher
	onCommit CommitFunc
	logger   *slog.Logger
}

// NewSession creates a stopped session for identity.
func NewSession(identity staffing.Identity, bus Subscriber, loader Loader, projects ProjectFetcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		state:    NewState(),
		identity: identity,
		bus:      bus,
		loader:   loader,
		projects: projects,
		logger:   logger.With("candidate_id", identity.CandidateID),
	}
}

// OnCommit registers fn to run after every committed change. It must be set
// before Start.
func (s *Session) OnCommit(fn CommitFunc) {
	s.onCommit = fn
}

// Identity returns the identity the session currently follows.
func (s *Session) Identity() staffing.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Start subscribes to the assignments and projects channels and loads the
// initial visible set. Starting twice is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.subscribeLocked()
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Stop unsubscribes and waits for in-flight events to finish.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.gen++
	s.closeSubsLocked()
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

// Rebind switches the session to a new identity. Every previous channel is
// unsubscribed before the new ones are opened and the set is reloaded.
func (s *Session) Rebind(ctx context.Context, identity staffing.Identity) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.closeSubsLocked()
	s.gen++
	s.identity = identity
	s.state = State{
		Assignments: map[string]VisibleAssignment{},
		Projects:    map[string]VisibleProject{},
		Revision:    s.state.Revision,
	}
	s.pending = nil
	s.mu.Unlock()

	// pumps exit once their channels are closed
	s.wg.Wait()
	s.logger.Info("session rebound", "profile_id", identity.ProfileID, "seniority", identity.Seniority)

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.subscribeLocked()
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Suspend stops applying events. Events arriving while suspended are dropped
// and the set is marked stale until the next Refresh.
func (s *Session) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
}

// Resume re-enables event handling and reloads the set.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Stale reports whether events were dropped since the last Refresh.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Snapshot returns the committed visible set.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Refresh reloads the visible set from storage. Events that arrive while the
// reload runs are queued and applied on top of the loaded set in arrival
// order.
func (s *Session) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	s.refreshing = true
	identity, gen := s.identity, s.gen
	s.mu.Unlock()

	loaded, err := s.load(ctx, identity)

	s.mu.Lock()
	committed := err == nil && gen == s.gen
	if committed {
		loaded.Revision = s.state.Revision + 1
		loaded.LastDeletion = s.state.LastDeletion
		for id, a := range loaded.Assignments {
			a.Revision = loaded.Revision
			loaded.Assignments[id] = a
		}
		for id, p := range loaded.Projects {
			p.Revision = loaded.Revision
			loaded.Projects[id] = p
		}
		s.state = loaded
		s.stale = false
	}
	snap := s.state
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("refreshing visible set", "error", err)
	} else if committed {
		s.notify(identity.CandidateID, snap)
	}
	s.drain(ctx, gen)

	if err != nil {
		return fmt.Errorf("refreshing visible set: %w", err)
	}
	return nil
}

// drain replays queued events one at a time. refreshing stays set until the
// queue is empty, so events arriving meanwhile queue behind older ones.
func (s *Session) drain(ctx context.Context, gen uint64) {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 || gen != s.gen {
			s.pending = nil
			s.refreshing = false
			s.mu.Unlock()
			return
		}
		ev := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		// errors are logged where they happen
		_ = s.apply(ctx, ev, true)
	}
}

// HandleChange decodes a raw change and applies it to the visible set.
func (s *Session) HandleChange(ctx context.Context, c realtime.Change) error {
	ev, err := Decode(c)
	if err != nil {
		s.logger.Warn("rejecting change", "table", c.Table, "op", c.Op, "error", err)
		return err
	}
	return s.apply(ctx, ev, false)
}

// apply reduces one event. Live events are queued while a refresh is in
// progress; replayed events come from that queue and skip the check.
func (s *Session) apply(ctx context.Context, ev Event, replay bool) error {
	s.mu.Lock()
	if s.suspended {
		s.stale = true
		s.mu.Unlock()
		return nil
	}
	if s.refreshing && !replay {
		s.pending = append(s.pending, ev)
		s.mu.Unlock()
		return nil
	}
	identity, gen := s.identity, s.gen
	next, out := Reduce(s.state, ev, identity, nil)
	if out.NeedsProject == "" {
		s.commitLocked(next, out)
		s.mu.Unlock()
		if out.Changed {
			s.notify(identity.CandidateID, next)
		}
		return nil
	}
	s.mu.Unlock()

	parent, err := s.projects.Get(ctx, out.NeedsProject)
	if err != nil {
		ferr := &DependencyFetchError{ProjectID: out.NeedsProject, Err: err}
		if ae, ok := ev.(AssignmentEvent); ok {
			ferr.AssignmentID = ae.ID()
		}
		s.logger.Error("dependency fetch failed", "project_id", ferr.ProjectID, "assignment_id", ferr.AssignmentID, "error", err)
		return ferr
	}

	s.mu.Lock()
	if gen != s.gen || s.suspended {
		s.mu.Unlock()
		return nil
	}
	// a refresh started while the parent was fetched; reduce against the
	// reloaded set instead
	if s.refreshing && !replay {
		s.pending = append(s.pending, ev)
		s.mu.Unlock()
		return nil
	}
	next, out = Reduce(s.state, ev, identity, parent)
	s.commitLocked(next, out)
	s.mu.Unlock()
	if out.Changed {
		s.notify(identity.CandidateID, next)
	}
	return nil
}

func (s *Session) commitLocked(next State, out Outcome) {
	if !out.Changed {
		return
	}
	s.state = next
	s.logger.Debug("visible set changed", "action", out.Action, "revision", next.Revision)
}

func (s *Session) notify(candidateID string, snap State) {
	if s.onCommit != nil {
		s.onCommit(candidateID, snap)
	}
}

func (s *Session) load(ctx context.Context, identity staffing.Identity) (State, error) {
	assignments, err := s.loader.ListForCandidate(ctx, identity)
	if err != nil {
		return State{}, fmt.Errorf("listing assignments: %w", err)
	}

	next := NewState()
	parents := make(map[string]*project.Project)
	for i := range assignments {
		a := assignments[i]
		next.Assignments[a.ID] = VisibleAssignment{Assignment: a}
		parents[a.ProjectID] = nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for pid := range parents {
		g.Go(func() error {
			p, err := s.projects.Get(gctx, pid)
			if err != nil {
				return &DependencyFetchError{ProjectID: pid, Err: err}
			}
			mu.Lock()
			parents[pid] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var ferr *DependencyFetchError
		if errors.As(err, &ferr) {
			s.logger.Error("dependency fetch failed", "project_id", ferr.ProjectID, "error", ferr.Err)
		}
		return State{}, err
	}

	for pid, p := range parents {
		if p == nil || p.Hidden() {
			continue
		}
		next.Projects[pid] = VisibleProject{Project: *p}
	}
	return next, nil
}

func (s *Session) subscribeLocked() {
	for _, table := range []string{AssignmentsTable, ProjectsTable} {
		sub := s.bus.Subscribe(realtime.TableTopic(table))
		s.subs = append(s.subs, sub)
		s.wg.Add(1)
		go s.pump(sub)
	}
}

func (s *Session) closeSubsLocked() {
	for _, sub := range s.subs {
		sub.Close()
	}
	s.subs = nil
}

func (s *Session) pump(sub *realtime.Subscription) {
	defer s.wg.Done()
	for ev := range sub.C {
		if ev.Change == nil {
			continue
		}
		// errors are logged where they happen
		_ = s.HandleChange(s.ctx, *ev.Change)
	}
}
