package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

const projectColumns = `id, owner_id, title, description, status, budget,
	start_date, end_date, archived_at, deleted_at, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	defer r.db.lockTable("projects")()

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.OwnerID,
		proj.Title,
		proj.Description,
		proj.Status,
		proj.Budget,
		nullTime(proj.StartDate),
		nullTime(proj.EndDate),
		nullTime(proj.ArchivedAt),
		nullTime(proj.DeletedAt),
		proj.CreatedAt,
		proj.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	r.db.publish("projects", realtime.OpInsert, nil, proj)
	return nil
}

// Get retrieves a project by ID, hidden or not
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// List returns visible projects with staffing and board counts
func (r *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.ProjectSummary, error) {
	query := `
		SELECT
			p.id,
			p.title,
			p.status,
			p.budget,
			p.created_at,
			(SELECT COUNT(*) FROM assignments a WHERE a.project_id = p.id AND a.booking_status != 'draft') as seat_count,
			(SELECT COUNT(*) FROM assignments a WHERE a.project_id = p.id AND a.booking_status = 'accepted') as filled_seats,
			(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id AND t.status != 'done') as open_tasks
		FROM projects p
		WHERE p.archived_at IS NULL AND p.deleted_at IS NULL
	`
	var args []any
	if opts.OwnerID != "" {
		query += " AND p.owner_id = ?"
		args = append(args, opts.OwnerID)
	}
	if opts.Status != "" {
		query += " AND p.status = ?"
		args = append(args, opts.Status)
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.ProjectSummary
	for rows.Next() {
		var summary project.ProjectSummary
		err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.Status,
			&summary.Budget,
			&summary.CreatedAt,
			&summary.SeatCount,
			&summary.FilledSeats,
			&summary.OpenTasks,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

// Update overwrites a project row and publishes the before and after rows
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	defer r.db.lockTable("projects")()

	var old *project.Project
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		old, err = scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, proj.ID))
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE projects
			SET title = ?, description = ?, status = ?, budget = ?, start_date = ?, end_date = ?,
				archived_at = ?, deleted_at = ?, updated_at = ?
			WHERE id = ?
		`,
			proj.Title,
			proj.Description,
			proj.Status,
			proj.Budget,
			nullTime(proj.StartDate),
			nullTime(proj.EndDate),
			nullTime(proj.ArchivedAt),
			nullTime(proj.DeletedAt),
			proj.UpdatedAt,
			proj.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.db.publish("projects", realtime.OpUpdate, old, proj)
	return nil
}

// Delete physically removes a project. Normal flows soft-delete through Update.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	defer r.db.lockTable("projects")()

	old, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	r.db.publish("projects", realtime.OpDelete, old, nil)
	return nil
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		proj                              project.Project
		start, end, archivedAt, deletedAt sql.NullTime
	)
	err := row.Scan(
		&proj.ID,
		&proj.OwnerID,
		&proj.Title,
		&proj.Description,
		&proj.Status,
		&proj.Budget,
		&start,
		&end,
		&archivedAt,
		&deletedAt,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	proj.StartDate = timePtr(start)
	proj.EndDate = timePtr(end)
	proj.ArchivedAt = timePtr(archivedAt)
	proj.DeletedAt = timePtr(deletedAt)
	return &proj, nil
}
