package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

const notificationColumns = `id, candidate_id, assignment_id, type, status, payload, created_at, updated_at`

// NotificationRepository implements notification.Repository for SQLite
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	defer r.db.lockTable("notifications")()

	var payload any
	if n.Payload != nil {
		data, err := json.Marshal(n.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		payload = string(data)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID,
		n.CandidateID,
		n.AssignmentID,
		n.Type,
		n.Status,
		payload,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	r.db.publish("notifications", realtime.OpInsert, nil, n)
	return nil
}

// Get retrieves a notification by ID
func (r *NotificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// List returns a candidate's notifications, newest first
func (r *NotificationRepository) List(ctx context.Context, opts notification.ListOptions) ([]notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE candidate_id = ?`
	args := []any{opts.CandidateID}
	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, *opts.Status)
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the status of a notification. Archived rows are left alone.
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id string, status notification.Status) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = ?, updated_at = ?
		WHERE id = ? AND status != 'archived'
	`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
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

// ArchiveForAssignment archives the open notifications of a seat, except those
// addressed to exceptCandidateID.
func (r *NotificationRepository) ArchiveForAssignment(ctx context.Context, assignmentID, exceptCandidateID string) (int, error) {
	return r.archive(ctx, `
		UPDATE notifications SET status = 'archived', updated_at = ?
		WHERE assignment_id = ? AND candidate_id != ? AND status != 'archived'
	`, time.Now(), assignmentID, exceptCandidateID)
}

// ArchiveForCandidate archives one candidate's open notifications about a seat.
func (r *NotificationRepository) ArchiveForCandidate(ctx context.Context, assignmentID, candidateID string) (int, error) {
	return r.archive(ctx, `
		UPDATE notifications SET status = 'archived', updated_at = ?
		WHERE assignment_id = ? AND candidate_id = ? AND status != 'archived'
	`, time.Now(), assignmentID, candidateID)
}

func (r *NotificationRepository) archive(ctx context.Context, query string, args ...any) (int, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to archive notifications: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var (
		n            notification.Notification
		assignmentID sql.NullString
		payload      sql.NullString
	)
	err := row.Scan(
		&n.ID,
		&n.CandidateID,
		&assignmentID,
		&n.Type,
		&n.Status,
		&payload,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.AssignmentID = stringPtr(assignmentID)
	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &n.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
	}
	return &n, nil
}
