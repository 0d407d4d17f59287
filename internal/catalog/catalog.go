// Package catalog provides the SQLite-backed store for entries, reminders,
// and application settings.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
	id            TEXT PRIMARY KEY,
	path          TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	relative_path TEXT NOT NULL DEFAULT '',
	archived      INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reminders (
	id           TEXT PRIMARY KEY,
	entry_id     TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	remind_at    TEXT NOT NULL,
	is_first     INTEGER NOT NULL DEFAULT 1,
	completed_at DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_archived ON entries(archived);
CREATE INDEX IF NOT EXISTS idx_reminders_remind_at ON reminders(remind_at);
CREATE INDEX IF NOT EXISTS idx_reminders_completed ON reminders(completed_at);

-- Guard: at most one active reminder per entry, even if a caller races
-- past the service-level check.
CREATE UNIQUE INDEX IF NOT EXISTS idx_reminders_one_active
	ON reminders(entry_id) WHERE completed_at IS NULL;
`

// EntryInput holds the fields needed to create or upsert an entry.
type EntryInput struct {
	Path         string
	Title        string
	RelativePath string
}

// ReminderInput holds the fields needed to create a reminder.
type ReminderInput struct {
	EntryID  string
	RemindAt time.Time
	IsFirst  bool
}

// Store defines the catalog operations the services depend on.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type Store interface {
	CreateEntry(ctx context.Context, in EntryInput) (*models.Entry, error)
	GetEntry(ctx context.Context, id string) (*models.Entry, error)
	GetEntryByPath(ctx context.Context, path string) (*models.Entry, error)
	UpdateEntryMeta(ctx context.Context, id, title, relativePath string) error
	SetEntryArchived(ctx context.Context, id string, archived bool) error
	DeleteEntryByPath(ctx context.Context, path string) error
	AllPaths(ctx context.Context) (map[string]struct{}, error)
	ListEntries(ctx context.Context, includeArchived bool) ([]models.EntryWithReminder, error)

	CreateReminder(ctx context.Context, in ReminderInput) (*models.Reminder, error)
	GetReminder(ctx context.Context, id string) (*models.Reminder, error)
	ActiveReminderByEntry(ctx context.Context, entryID string) (*models.Reminder, error)
	SetReminderDate(ctx context.Context, id string, remindAt time.Time) error
	CompleteReminder(ctx context.Context, id string, at time.Time) error
	DeleteReminder(ctx context.Context, id string) error
	CountDue(ctx context.Context, today time.Time) (int, error)

	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
