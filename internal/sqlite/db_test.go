package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/realtime"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// capture records published changes.
type capture struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (c *capture) Publish(ch realtime.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func (c *capture) all() []realtime.Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Change(nil), c.changes...)
}

func seedProject(t *testing.T, db *DB, id string) *project.Project {
	t.Helper()
	now := time.Now()
	proj := &project.Project{
		ID:        id,
		OwnerID:   "owner1",
		Title:     "Project " + id,
		Status:    project.StatusAwaitTeam,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewProjectRepository(db).Create(context.Background(), proj))
	return proj
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"projects",
		"candidates",
		"assignments",
		"notifications",
		"threads",
		"messages",
		"tasks",
		"meetings",
		"activity_log",
		"tasks_fts",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// A second run leaves the existing schema alone.
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestBookingStatusCheckConstraint(t *testing.T) {
	db := NewTestDB(t)
	seedProject(t, db, "p1")

	_, err := db.Exec(`INSERT INTO assignments (id, project_id, profile_id, seniority, booking_status)
		VALUES ('a1', 'p1', 'dev', 'senior', 'pending')`)
	require.Error(t, err)
}
