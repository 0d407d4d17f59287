package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// CreateEntry inserts a new entry and returns it.
func (db *DB) CreateEntry(ctx context.Context, in EntryInput) (*models.Entry, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO entries (id, path, title, relative_path, archived, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, id, in.Path, in.Title, in.RelativePath, now)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert entry: %w", err)
	}
	return &models.Entry{
		ID:           id,
		Path:         in.Path,
		Title:        in.Title,
		RelativePath: in.RelativePath,
		CreatedAt:    now,
	}, nil
}

// GetEntry returns the entry with the given id.
func (db *DB) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	return db.scanEntry(db.conn.QueryRowContext(ctx, `
		SELECT id, path, title, relative_path, archived, created_at
		FROM entries WHERE id = ?
	`, id))
}

// GetEntryByPath returns the entry with the given vault path.
func (db *DB) GetEntryByPath(ctx context.Context, path string) (*models.Entry, error) {
	return db.scanEntry(db.conn.QueryRowContext(ctx, `
		SELECT id, path, title, relative_path, archived, created_at
		FROM entries WHERE path = ?
	`, path))
}

func (db *DB) scanEntry(row *sql.Row) (*models.Entry, error) {
	var e models.Entry
	var archived int
	err := row.Scan(&e.ID, &e.Path, &e.Title, &e.RelativePath, &archived, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: scan entry: %w", err)
	}
	e.Archived = archived == 1
	return &e, nil
}

// UpdateEntryMeta rewrites the title and relative path of an entry.
func (db *DB) UpdateEntryMeta(ctx context.Context, id, title, relativePath string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE entries SET title = ?, relative_path = ? WHERE id = ?
	`, title, relativePath, id)
	if err != nil {
		return fmt.Errorf("catalog: update entry: %w", err)
	}
	return requireAffected(res)
}

// SetEntryArchived flips the archived flag on an entry.
func (db *DB) SetEntryArchived(ctx context.Context, id string, archived bool) error {
	flag := 0
	if archived {
		flag = 1
	}
	res, err := db.conn.ExecContext(ctx, `UPDATE entries SET archived = ? WHERE id = ?`, flag, id)
	if err != nil {
		return fmt.Errorf("catalog: set archived: %w", err)
	}
	return requireAffected(res)
}

// DeleteEntryByPath removes the entry at the given vault path.
// Its reminders are removed by the foreign-key cascade.
func (db *DB) DeleteEntryByPath(ctx context.Context, path string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM entries WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("catalog: delete entry: %w", err)
	}
	return requireAffected(res)
}

// AllPaths returns every catalog entry path.
func (db *DB) AllPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// ListEntries returns entries joined with their active reminder. Entries
// with an active reminder come first (soonest remind date first), then the
// rest ordered by title. Archived entries are excluded unless requested.
func (db *DB) ListEntries(ctx context.Context, includeArchived bool) ([]models.EntryWithReminder, error) {
	query := `
		SELECT
			e.id, e.path, e.title, e.relative_path, e.archived, e.created_at,
			r.id, r.remind_at, r.is_first, r.created_at
		FROM entries e
		LEFT JOIN reminders r ON e.id = r.entry_id AND r.completed_at IS NULL
	`
	if !includeArchived {
		query += ` WHERE e.archived = 0`
	}
	query += `
		ORDER BY
			CASE WHEN r.remind_at IS NOT NULL THEN 0 ELSE 1 END,
			r.remind_at ASC,
			e.title ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: list entries: %w", err)
	}
	defer rows.Close()

	var out []models.EntryWithReminder
	for rows.Next() {
		var item models.EntryWithReminder
		var archived int
		var rID, rRemindAt sql.NullString
		var rIsFirst sql.NullInt64
		var rCreatedAt sql.NullTime
		err := rows.Scan(
			&item.ID, &item.Path, &item.Title, &item.RelativePath, &archived, &item.CreatedAt,
			&rID, &rRemindAt, &rIsFirst, &rCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan entry row: %w", err)
		}
		item.Archived = archived == 1
		if rID.Valid {
			remindAt, err := parseDate(rRemindAt.String)
			if err != nil {
				return nil, err
			}
			item.Reminder = &models.Reminder{
				ID:        rID.String,
				EntryID:   item.ID,
				RemindAt:  remindAt,
				IsFirst:   rIsFirst.Int64 == 1,
				CreatedAt: rCreatedAt.Time,
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// requireAffected translates "no rows touched" into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
