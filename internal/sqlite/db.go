package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/teamdash/teamdash/internal/realtime"
	_ "modernc.org/sqlite"
)

// Publisher receives a change event for every committed write.
type Publisher interface {
	Publish(c realtime.Change)
}

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
	publisher Publisher

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates a new SQLite database connection. File databases run in WAL mode.
func New(dataSourceName string) (*DB, error) {
	dsn := dataSourceName
	memory := strings.Contains(dsn, ":memory:")
	if !strings.Contains(dsn, "?") {
		dsn += "?_time_format=sqlite"
		if !memory {
			dsn += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is its own database
	if memory {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{DB: db}, nil
}

// SetPublisher routes row changes to p. A nil publisher disables events.
func (db *DB) SetPublisher(p Publisher) {
	db.publisher = p
}

// lockTable serializes writes to table together with the events they
// publish, so a table's changes reach the bus in commit order. Call the
// returned func to unlock.
func (db *DB) lockTable(table string) func() {
	db.locksMu.Lock()
	if db.locks == nil {
		db.locks = make(map[string]*sync.Mutex)
	}
	mu, ok := db.locks[table]
	if !ok {
		mu = &sync.Mutex{}
		db.locks[table] = mu
	}
	db.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// publish emits a row change. Callers hold the table's lock. old or new may be nil.
func (db *DB) publish(table string, op realtime.Op, oldRow, newRow any) {
	if db.publisher == nil {
		return
	}
	c := realtime.Change{Table: table, Op: op}
	if oldRow != nil {
		c.Old, _ = json.Marshal(oldRow)
	}
	if newRow != nil {
		c.New, _ = json.Marshal(newRow)
	}
	db.publisher.Publish(c)
}

// inTx runs fn in a transaction and commits when it returns nil.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const schemaVersion = 1

// RunMigrations creates the schema on an empty database. The schema version
// is kept in user_version, so running it again is a no-op.
func (db *DB) RunMigrations() error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	migration := `
-- Projects
CREATE TABLE projects (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('pause', 'attente-team', 'play', 'completed')),
    budget REAL NOT NULL DEFAULT 0,
    start_date TIMESTAMP,
    end_date TIMESTAMP,
    archived_at TIMESTAMP,
    deleted_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_owner_projects ON projects(owner_id);

-- Candidate profiles
CREATE TABLE candidates (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    profile_id TEXT NOT NULL,
    seniority TEXT NOT NULL CHECK(seniority IN ('junior', 'intermediate', 'senior', 'expert')),
    availability TEXT NOT NULL CHECK(availability IN ('disponible', 'en-mission', 'qualification')),
    languages TEXT NOT NULL DEFAULT '[]',
    expertises TEXT NOT NULL DEFAULT '[]',
    is_ai INTEGER NOT NULL DEFAULT 0,
    daily_rate REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_candidate_match ON candidates(profile_id, seniority, availability);

-- Resource assignments (seats)
CREATE TABLE assignments (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    profile_id TEXT NOT NULL,
    seniority TEXT NOT NULL CHECK(seniority IN ('junior', 'intermediate', 'senior', 'expert')),
    languages TEXT NOT NULL DEFAULT '[]',
    expertises TEXT NOT NULL DEFAULT '[]',
    booking_status TEXT NOT NULL CHECK(booking_status IN ('draft', 'recherche', 'accepted', 'declined', 'expired')),
    candidate_id TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
    FOREIGN KEY (candidate_id) REFERENCES candidates(id)
);
CREATE INDEX idx_project_assignments ON assignments(project_id);
CREATE INDEX idx_candidate_assignments ON assignments(candidate_id);
CREATE INDEX idx_open_assignments ON assignments(booking_status, profile_id, seniority);

-- Notifications
CREATE TABLE notifications (
    id TEXT PRIMARY KEY,
    candidate_id TEXT NOT NULL,
    assignment_id TEXT,
    type TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('unread', 'read', 'archived')),
    payload TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_candidate_notifications ON notifications(candidate_id, status);
CREATE INDEX idx_assignment_notifications ON notifications(assignment_id);

-- Message threads
CREATE TABLE threads (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    type TEXT NOT NULL CHECK(type IN ('public', 'private')),
    title TEXT NOT NULL DEFAULT '',
    participants TEXT NOT NULL DEFAULT '[]',
    created_by TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX idx_project_threads ON threads(project_id);

-- Messages carry the visibility of their thread at send time
CREATE TABLE messages (
    id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    sender_id TEXT NOT NULL,
    content TEXT NOT NULL,
    is_ai INTEGER NOT NULL DEFAULT 0,
    is_private INTEGER NOT NULL DEFAULT 0,
    participants TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE
);
CREATE INDEX idx_thread_messages ON messages(thread_id, created_at);

-- Kanban tasks
CREATE TABLE tasks (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    assignee TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('todo', 'in_progress', 'review', 'done')),
    priority TEXT NOT NULL CHECK(priority IN ('low', 'medium', 'high', 'urgent')),
    due_date TIMESTAMP,
    estimated_hours REAL,
    created_by TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_ns INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX idx_project_tasks ON tasks(project_id, status);

-- Meetings
CREATE TABLE meetings (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    starts_at TIMESTAMP NOT NULL,
    duration_minutes INTEGER NOT NULL,
    participants TEXT NOT NULL DEFAULT '[]',
    video_link TEXT NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX idx_project_meetings ON meetings(project_id, starts_at);

-- Activity log
CREATE TABLE activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL,
    actor_id TEXT,
    assignment_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_project_activity ON activity_log(project_id);
CREATE INDEX idx_assignment_activity ON activity_log(assignment_id);
CREATE INDEX idx_created_at ON activity_log(created_at);

-- Full-text search (SQLite FTS5)
CREATE VIRTUAL TABLE tasks_fts USING fts5(
    title,
    description,
    content='tasks',
    content_rowid='rowid'
);

-- Triggers to keep FTS index synchronized
CREATE TRIGGER tasks_ai AFTER INSERT ON tasks BEGIN
    INSERT INTO tasks_fts(rowid, title, description)
    VALUES (new.rowid, new.title, new.description);
END;

CREATE TRIGGER tasks_ad AFTER DELETE ON tasks BEGIN
    INSERT INTO tasks_fts(tasks_fts, rowid, title, description)
    VALUES('delete', old.rowid, old.title, old.description);
END;

CREATE TRIGGER tasks_au AFTER UPDATE ON tasks BEGIN
    INSERT INTO tasks_fts(tasks_fts, rowid, title, description)
    VALUES('delete', old.rowid, old.title, old.description);
    INSERT INTO tasks_fts(rowid, title, description)
    VALUES (new.rowid, new.title, new.description);
END;
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	return nil
}
