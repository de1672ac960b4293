package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/teamdash/teamdash/internal/domain/task"
)

// SearchRepository implements task.SearchRepository for SQLite
type SearchRepository struct {
	db *DB
}

// NewSearchRepository creates a new SearchRepository
func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Search performs a full-text search over task titles and descriptions
func (r *SearchRepository) Search(ctx context.Context, projectID, query string, opts task.SearchOptions) ([]task.SearchResult, error) {
	baseQuery := `
		SELECT
			t.id, t.project_id, t.title, t.description, t.assignee, t.status, t.priority,
			t.due_date, t.estimated_hours, t.created_by, t.created_at, t.updated_ns,
			bm25(tasks_fts) as rank,
			snippet(tasks_fts, -1, '[', ']', '...', 8) as snippet
		FROM tasks_fts
		JOIN tasks t ON t.rowid = tasks_fts.rowid
		WHERE t.project_id = ? AND tasks_fts MATCH ?
	`

	args := []any{projectID, ftsQuery(query)}

	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, status := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		baseQuery += fmt.Sprintf(" AND t.status IN (%s)", strings.Join(placeholders, ","))
	}

	baseQuery += " ORDER BY rank"

	if opts.Limit > 0 {
		baseQuery += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			baseQuery += " LIMIT -1"
		}
		baseQuery += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer rows.Close()

	var results []task.SearchResult
	for rows.Next() {
		var (
			result task.SearchResult
			rank   float64
			snip   string
		)
		t, err := scanTask(scanFunc(func(dest ...any) error {
			return rows.Scan(append(dest, &rank, &snip)...)
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		result.Task = *t
		result.Rank = rank
		result.Snippet = snip
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// scanFunc adapts a function to rowScanner.
type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// ftsQuery quotes each word so user text can't inject FTS5 syntax.
func ftsQuery(q string) string {
	words := strings.Fields(q)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(words, " ")
}
