package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

// ThreadRepository implements message.ThreadRepository for SQLite
type ThreadRepository struct {
	db *DB
}

// NewThreadRepository creates a new ThreadRepository
func NewThreadRepository(db *DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create inserts a thread
func (r *ThreadRepository) Create(ctx context.Context, t *message.Thread) error {
	defer r.db.lockTable("threads")()

	participants, err := encodeParticipants(t.Participants)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO threads (id, project_id, type, title, participants, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Type, t.Title, participants, t.CreatedBy, t.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create thread: %w", err)
	}
	r.db.publish("threads", realtime.OpInsert, nil, t)
	return nil
}

// Get retrieves a thread by ID
func (r *ThreadRepository) Get(ctx context.Context, id string) (*message.Thread, error) {
	t, err := scanThread(r.db.QueryRowContext(ctx, `
		SELECT id, project_id, type, title, participants, created_by, created_at
		FROM threads WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return t, nil
}

// ListByProject returns a project's threads, oldest first
func (r *ThreadRepository) ListByProject(ctx context.Context, projectID string) ([]message.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, type, title, participants, created_by, created_at
		FROM threads WHERE project_id = ? ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var out []message.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thread rows: %w", err)
	}
	return out, nil
}

// UpdateType changes a thread's type and participants. Stored messages are not touched.
func (r *ThreadRepository) UpdateType(ctx context.Context, id string, typ message.ThreadType, participants []message.Participant) error {
	encoded, err := encodeParticipants(participants)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `UPDATE threads SET type = ?, participants = ? WHERE id = ?`, typ, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MessageRepository implements message.MessageRepository for SQLite
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message
func (r *MessageRepository) Create(ctx context.Context, m *message.Message) error {
	defer r.db.lockTable("messages")()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, project_id, sender_id, content, is_ai, is_private, participants, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ThreadID, m.ProjectID, m.SenderID, m.Content, m.IsAI, m.IsPrivate, encodeSet(m.Participants), m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	r.db.publish("messages", realtime.OpInsert, nil, m)
	return nil
}

// ListByThread returns the newest limit messages of a thread, oldest first
func (r *MessageRepository) ListByThread(ctx context.Context, threadID string, limit int) ([]message.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, project_id, sender_id, content, is_ai, is_private, participants, created_at
		FROM (
			SELECT * FROM messages WHERE thread_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		)
		ORDER BY created_at ASC
	`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []message.Message
	for rows.Next() {
		var (
			m            message.Message
			participants string
		)
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.ProjectID, &m.SenderID, &m.Content, &m.IsAI, &m.IsPrivate, &participants, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Participants = decodeSet(participants)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return out, nil
}

func encodeParticipants(p []message.Participant) (string, error) {
	if p == nil {
		p = []message.Participant{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode participants: %w", err)
	}
	return string(data), nil
}

func scanThread(row rowScanner) (*message.Thread, error) {
	var (
		t            message.Thread
		participants string
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Type, &t.Title, &participants, &t.CreatedBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	if participants != "" {
		if err := json.Unmarshal([]byte(participants), &t.Participants); err != nil {
			return nil, fmt.Errorf("failed to decode participants: %w", err)
		}
	}
	if len(t.Participants) == 0 {
		t.Participants = nil
	}
	return &t, nil
}
