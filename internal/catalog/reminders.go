package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// Reminder dates are stored as bare calendar dates; comparisons in SQL are
// lexicographic, which is correct for this format.
const dateLayout = time.DateOnly

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("catalog: parse remind date %q: %w", s, err)
	}
	return t, nil
}

// CreateReminder inserts a new active reminder and returns it.
// The partial unique index on active reminders turns a race between two
// concurrent creates for the same entry into ErrConflict.
func (db *DB) CreateReminder(ctx context.Context, in ReminderInput) (*models.Reminder, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO reminders (id, entry_id, remind_at, is_first, completed_at, created_at)
		VALUES (?, ?, ?, ?, NULL, ?)
	`, id, in.EntryID, formatDate(in.RemindAt), boolToInt(in.IsFirst), now)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, apperr.ErrConflict
		}
		return nil, fmt.Errorf("catalog: insert reminder: %w", err)
	}
	return &models.Reminder{
		ID:        id,
		EntryID:   in.EntryID,
		RemindAt:  in.RemindAt,
		IsFirst:   in.IsFirst,
		CreatedAt: now,
	}, nil
}

// GetReminder returns the reminder with the given id.
func (db *DB) GetReminder(ctx context.Context, id string) (*models.Reminder, error) {
	r, err := db.scanReminder(db.conn.QueryRowContext(ctx, `
		SELECT id, entry_id, remind_at, is_first, completed_at, created_at
		FROM reminders WHERE id = ?
	`, id))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.ErrNotFound
	}
	return r, nil
}

// ActiveReminderByEntry returns the entry's active reminder, or nil when
// the entry has none.
func (db *DB) ActiveReminderByEntry(ctx context.Context, entryID string) (*models.Reminder, error) {
	return db.scanReminder(db.conn.QueryRowContext(ctx, `
		SELECT id, entry_id, remind_at, is_first, completed_at, created_at
		FROM reminders WHERE entry_id = ? AND completed_at IS NULL
	`, entryID))
}

func (db *DB) scanReminder(row *sql.Row) (*models.Reminder, error) {
	var r models.Reminder
	var remindAt string
	var isFirst int
	var completedAt sql.NullTime
	err := row.Scan(&r.ID, &r.EntryID, &remindAt, &isFirst, &completedAt, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: scan reminder: %w", err)
	}
	r.RemindAt, err = parseDate(remindAt)
	if err != nil {
		return nil, err
	}
	r.IsFirst = isFirst == 1
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

// SetReminderDate rewrites the remind date on an existing reminder.
func (db *DB) SetReminderDate(ctx context.Context, id string, remindAt time.Time) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE reminders SET remind_at = ? WHERE id = ?
	`, formatDate(remindAt), id)
	if err != nil {
		return fmt.Errorf("catalog: set remind date: %w", err)
	}
	return requireAffected(res)
}

// CompleteReminder stamps a reminder as done. The row is retained.
func (db *DB) CompleteReminder(ctx context.Context, id string, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE reminders SET completed_at = ? WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("catalog: complete reminder: %w", err)
	}
	return requireAffected(res)
}

// DeleteReminder removes a reminder outright.
func (db *DB) DeleteReminder(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete reminder: %w", err)
	}
	return requireAffected(res)
}

// CountDue returns the number of active reminders due on or before today.
func (db *DB) CountDue(ctx context.Context, today time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reminders
		WHERE completed_at IS NULL AND remind_at <= ?
	`, formatDate(today)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("catalog: count due: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
