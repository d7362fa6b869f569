package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetCache returns a stored upstream response, or nil when the key is
// missing or expired.
func (db *DB) GetCache(ctx context.Context, key string) ([]byte, error) {
	type cacheRow struct {
		ExpiresAt sql.NullTime `db:"expires_at"`
		Data      []byte       `db:"data"`
	}

	var row cacheRow
	err := db.GetContext(ctx, &row, "SELECT data, expires_at FROM cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if row.ExpiresAt.Valid && db.now().After(row.ExpiresAt.Time) {
		_, _ = db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key)
		return nil, nil
	}

	return row.Data, nil
}

// SetCache stores data under key. A ttl of zero never expires.
func (db *DB) SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := db.now().Add(ttl)
		expiresAt = &t
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO cache (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, key, data, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}
