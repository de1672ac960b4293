package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

const assignmentColumns = `id, project_id, profile_id, seniority, languages, expertises,
	booking_status, candidate_id, created_at, updated_at`

// AssignmentRepository implements staffing.AssignmentRepository for SQLite
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a seat
func (r *AssignmentRepository) Create(ctx context.Context, a *staffing.Assignment) error {
	defer r.db.lockTable("assignments")()

	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.ProjectID,
		a.ProfileID,
		a.Seniority,
		encodeSet(a.Languages),
		encodeSet(a.Expertises),
		a.BookingStatus,
		a.CandidateID,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	r.db.publish("assignments", realtime.OpInsert, nil, a)
	return nil
}

// Get retrieves a seat by ID
func (r *AssignmentRepository) Get(ctx context.Context, id string) (*staffing.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// Update writes a seat if its stored booking status is still expected.
// Returns repository.ErrConflict when another writer moved it first.
func (r *AssignmentRepository) Update(ctx context.Context, a *staffing.Assignment, expected staffing.BookingStatus) error {
	defer r.db.lockTable("assignments")()

	var old *staffing.Assignment
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		old, err = scanAssignment(tx.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, a.ID))
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE assignments
			SET profile_id = ?, seniority = ?, languages = ?, expertises = ?,
				booking_status = ?, candidate_id = ?, updated_at = ?
			WHERE id = ? AND booking_status = ?
		`,
			a.ProfileID,
			a.Seniority,
			encodeSet(a.Languages),
			encodeSet(a.Expertises),
			a.BookingStatus,
			a.CandidateID,
			a.UpdatedAt,
			a.ID,
			expected,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to update assignment: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return repository.ErrConflict
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.db.publish("assignments", realtime.OpUpdate, old, a)
	return nil
}

// Delete removes a seat
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	defer r.db.lockTable("assignments")()

	old, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	r.db.publish("assignments", realtime.OpDelete, old, nil)
	return nil
}

// ListByProject returns a project's seats, oldest first
func (r *AssignmentRepository) ListByProject(ctx context.Context, projectID string) ([]staffing.Assignment, error) {
	return r.list(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE project_id = ? ORDER BY created_at ASC`, projectID)
}

// ListForCandidate evaluates the matching predicate in SQL: seats bound to the
// candidate, plus open searches for their profile and seniority on visible projects.
func (r *AssignmentRepository) ListForCandidate(ctx context.Context, id staffing.Identity) ([]staffing.Assignment, error) {
	query := `
		SELECT a.id, a.project_id, a.profile_id, a.seniority, a.languages, a.expertises,
			a.booking_status, a.candidate_id, a.created_at, a.updated_at
		FROM assignments a
		JOIN projects p ON p.id = a.project_id
		WHERE p.archived_at IS NULL AND p.deleted_at IS NULL
		  AND (
			a.candidate_id = ?
			OR (a.candidate_id IS NULL AND a.booking_status = 'recherche' AND a.profile_id = ? AND a.seniority = ?)
		  )
		ORDER BY a.updated_at DESC
	`
	return r.list(ctx, query, id.CandidateID, id.ProfileID, id.Seniority)
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]staffing.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []staffing.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}
	return out, nil
}

func scanAssignment(row rowScanner) (*staffing.Assignment, error) {
	var (
		a                     staffing.Assignment
		languages, expertises string
		candidateID           sql.NullString
	)
	err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.ProfileID,
		&a.Seniority,
		&languages,
		&expertises,
		&a.BookingStatus,
		&candidateID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Languages = decodeSet(languages)
	a.Expertises = decodeSet(expertises)
	a.CandidateID = stringPtr(candidateID)
	return &a, nil
}
