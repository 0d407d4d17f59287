package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Well-known settings keys.
const (
	SettingVaultPath  = "vaultPath"
	SettingLastSyncAt = "lastSyncAt"
)

// Setting returns the value for a settings key, or the empty string when
// the key has never been set.
func (db *DB) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get setting %q: %w", key, err)
	}
	return v, nil
}

// SetSetting upserts a settings key.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("catalog: set setting %q: %w", key, err)
	}
	return nil
}
