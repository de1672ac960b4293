package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamdash/teamdash/internal/domain/task"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

const taskColumns = `id, project_id, title, description, assignee, status, priority,
	due_date, estimated_hours, created_by, created_at, updated_ns`

// TaskRepository implements task.Repository for SQLite
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	defer r.db.lockTable("tasks")()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.ProjectID,
		t.Title,
		t.Description,
		t.Assignee,
		t.Status,
		t.Priority,
		nullTime(t.DueDate),
		t.EstimatedHours,
		t.CreatedBy,
		t.CreatedAt,
		t.UpdatedAt.UnixNano(),
		t.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	r.db.publish("tasks", realtime.OpInsert, nil, t)
	return nil
}

// Get retrieves a task by ID
func (r *TaskRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// Update writes a task if it has not changed since expected (its updated_at in
// nanoseconds).
func (r *TaskRepository) Update(ctx context.Context, t *task.Task, expected int64) error {
	defer r.db.lockTable("tasks")()

	var old *task.Task
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		old, err = scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, t.ID))
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, description = ?, assignee = ?, status = ?, priority = ?,
				due_date = ?, estimated_hours = ?, updated_at = ?, updated_ns = ?
			WHERE id = ? AND updated_ns = ?
		`,
			t.Title,
			t.Description,
			t.Assignee,
			t.Status,
			t.Priority,
			nullTime(t.DueDate),
			t.EstimatedHours,
			t.UpdatedAt,
			t.UpdatedAt.UnixNano(),
			t.ID,
			expected,
		)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
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
	r.db.publish("tasks", realtime.OpUpdate, old, t)
	return nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	defer r.db.lockTable("tasks")()

	old, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	r.db.publish("tasks", realtime.OpDelete, old, nil)
	return nil
}

// List returns tasks matching opts, by priority then age
func (r *TaskRepository) List(ctx context.Context, opts task.ListOptions) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	args := []any{opts.ProjectID}

	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, status := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}
	if opts.Assignee != "" {
		query += " AND assignee = ?"
		args = append(args, opts.Assignee)
	}

	query += ` ORDER BY CASE priority
		WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at ASC`

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return out, nil
}

// CountByStatus counts a project's tasks per column
func (r *TaskRepository) CountByStatus(ctx context.Context, projectID string) (task.BoardSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := task.BoardSummary{}
	for rows.Next() {
		var status task.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan task count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task counts: %w", err)
	}
	return counts, nil
}

func scanTask(row rowScanner) (*task.Task, error) {
	var (
		t         task.Task
		dueDate   sql.NullTime
		hours     sql.NullFloat64
		updatedNS int64
	)
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.Assignee,
		&t.Status,
		&t.Priority,
		&dueDate,
		&hours,
		&t.CreatedBy,
		&t.CreatedAt,
		&updatedNS,
	)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Unix(0, updatedNS).UTC()
	t.DueDate = timePtr(dueDate)
	if hours.Valid {
		h := hours.Float64
		t.EstimatedHours = &h
	}
	return &t, nil
}
