package message

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teamdash/teamdash/internal/repository"
)

const defaultHistory = 50

// Service handles threads and messages.
type Service struct {
	threads  ThreadRepository
	messages MessageRepository
	bus      Broadcaster
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new messaging service. bus may be nil.
func NewService(threads ThreadRepository, messages MessageRepository, bus Broadcaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{threads: threads, messages: messages, bus: bus, logger: logger, now: time.Now}
}

// CreateThreadRequest describes a new thread.
type CreateThreadRequest struct {
	ProjectID    string
	Type         ThreadType
	Title        string
	CreatedBy    string
	Participants []Participant
}

// CreateThread opens a thread. The creator always takes part in a private thread.
func (s *Service) CreateThread(ctx context.Context, req CreateThreadRequest) (*Thread, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.CreatedBy) == "" {
		return nil, ErrInvalidInput
	}
	typ := req.Type
	if typ == "" {
		typ = ThreadPublic
	}
	if !typ.Valid() {
		return nil, ErrInvalidInput
	}

	t := &Thread{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		Type:      typ,
		Title:     req.Title,
		CreatedBy: req.CreatedBy,
		CreatedAt: s.now(),
	}
	if typ == ThreadPrivate {
		t.Participants = append(t.Participants, req.Participants...)
		if !t.HasParticipant(req.CreatedBy) {
			t.Participants = append(t.Participants, Participant{UserID: req.CreatedBy})
		}
	}
	if err := s.threads.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	return t, nil
}

// GetThread returns a thread by ID.
func (s *Service) GetThread(ctx context.Context, id string) (*Thread, error) {
	t, err := s.threads.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("getting thread: %w", err)
	}
	return t, nil
}

// ListThreads returns a project's threads readable by userID.
func (s *Service) ListThreads(ctx context.Context, projectID, userID string) ([]Thread, error) {
	all, err := s.threads.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]Thread, 0, len(all))
	for _, t := range all {
		if t.Type == ThreadPublic || t.HasParticipant(userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ChangeType switches a thread between public and private. Messages already
// sent keep the visibility they were stored with.
func (s *Service) ChangeType(ctx context.Context, id string, typ ThreadType, participants []Participant) (*Thread, error) {
	if !typ.Valid() {
		return nil, ErrInvalidInput
	}
	t, err := s.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Type = typ
	t.Participants = nil
	if typ == ThreadPrivate {
		t.Participants = participants
	}
	if err := s.threads.UpdateType(ctx, id, typ, t.Participants); err != nil {
		return nil, fmt.Errorf("updating thread type: %w", err)
	}
	return t, nil
}

// SendRequest describes a message to post.
type SendRequest struct {
	ThreadID string
	SenderID string
	Content  string
	IsAI     bool
}

// Send posts a message, freezing the thread's visibility onto it.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Message, error) {
	if strings.TrimSpace(req.Content) == "" || strings.TrimSpace(req.SenderID) == "" {
		return nil, ErrInvalidInput
	}
	t, err := s.GetThread(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	private := t.Type == ThreadPrivate
	if private && !req.IsAI && !t.HasParticipant(req.SenderID) {
		return nil, ErrNotParticipant
	}

	m := &Message{
		ID:        uuid.NewString(),
		ThreadID:  t.ID,
		ProjectID: t.ProjectID,
		SenderID:  req.SenderID,
		Content:   req.Content,
		IsAI:      req.IsAI,
		IsPrivate: private,
		CreatedAt: s.now(),
	}
	if private {
		m.Participants = t.ParticipantIDs()
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}
	return m, nil
}

// ListVisible returns the newest messages of a thread userID may read.
func (s *Service) ListVisible(ctx context.Context, threadID, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultHistory
	}
	msgs, err := s.messages.ListByThread(ctx, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.VisibleTo(userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Typing tells the thread's subscribers that userID is typing.
func (s *Service) Typing(threadID, userID string) error {
	if s.bus == nil {
		return nil
	}
	return s.bus.Broadcast(ThreadTopic(threadID), "typing", map[string]string{"user_id": userID})
}

// ThreadTopic is the realtime topic carrying a thread's ephemeral events.
func ThreadTopic(threadID string) string {
	return "thread:" + threadID
}
