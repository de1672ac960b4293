package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teamdash/teamdash/internal/domain/meeting"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

const meetingColumns = `id, project_id, title, description, starts_at, duration_minutes,
	participants, video_link, created_by, created_at`

// MeetingRepository implements meeting.Repository for SQLite
type MeetingRepository struct {
	db *DB
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(db *DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts a meeting
func (r *MeetingRepository) Create(ctx context.Context, m *meeting.Meeting) error {
	defer r.db.lockTable("meetings")()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meetings (`+meetingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.ProjectID,
		m.Title,
		m.Description,
		m.StartsAt.UTC(),
		m.DurationMinutes,
		encodeSet(m.Participants),
		m.VideoLink,
		m.CreatedBy,
		m.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	r.db.publish("meetings", realtime.OpInsert, nil, m)
	return nil
}

// Get retrieves a meeting by ID
func (r *MeetingRepository) Get(ctx context.Context, id string) (*meeting.Meeting, error) {
	m, err := scanMeeting(r.db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return m, nil
}

// ListUpcoming returns meetings starting at or after from, soonest first
func (r *MeetingRepository) ListUpcoming(ctx context.Context, projectID string, from time.Time, limit int) ([]meeting.Meeting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+meetingColumns+`
		FROM meetings
		WHERE project_id = ? AND starts_at >= ?
		ORDER BY starts_at ASC
		LIMIT ?
	`, projectID, from.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var out []meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meeting rows: %w", err)
	}
	return out, nil
}

func scanMeeting(row rowScanner) (*meeting.Meeting, error) {
	var (
		m            meeting.Meeting
		participants string
	)
	err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.Title,
		&m.Description,
		&m.StartsAt,
		&m.DurationMinutes,
		&participants,
		&m.VideoLink,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Participants = decodeSet(participants)
	return &m, nil
}
