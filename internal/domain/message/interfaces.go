package message

import "context"

// ThreadRepository provides persistence for threads.
type ThreadRepository interface {
	Create(ctx context.Context, t *Thread) error
	Get(ctx context.Context, id string) (*Thread, error)
	ListByProject(ctx context.Context, projectID string) ([]Thread, error)
	UpdateType(ctx context.Context, id string, typ ThreadType, participants []Participant) error
}

// MessageRepository provides persistence for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListByThread returns the newest limit messages, oldest first.
	ListByThread(ctx context.Context, threadID string, limit int) ([]Message, error)
}

// Broadcaster sends ephemeral events to realtime subscribers.
type Broadcaster interface {
	Broadcast(topic, event string, payload any) error
}
