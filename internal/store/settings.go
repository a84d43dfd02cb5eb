// ABOUTME: Key-value settings store with caller-supplied defaults
// ABOUTME: Values are opaque strings; callers own parsing and validation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSetting returns the stored value for key, or fallback if the key is absent.
func (s *SQLiteStore) GetSetting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %q: %w", key, err)
	}

	return value, nil
}

// SetSetting upserts a setting: insert if absent, overwrite if present.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`

	_, err := s.db.ExecContext(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("upserting setting %q: %w", key, err)
	}

	s.logger.Debug("set setting", "key", key)
	return nil
}
