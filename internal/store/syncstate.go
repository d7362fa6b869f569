package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/plexsage/internal/domain"
)

func (db *DB) State(ctx context.Context) (domain.SyncState, error) {
	var state domain.SyncState
	err := db.GetContext(ctx, &state, `SELECT source_identity, last_synced_at, entry_count, last_sync_duration_ms
		FROM sync_state WHERE id = 1`)
	if err != nil {
		return state, fmt.Errorf("failed to read sync state: %w", err)
	}
	return state, nil
}

// HasEntries reports whether the last sync left a usable cache.
func (db *DB) HasEntries(ctx context.Context) (bool, error) {
	state, err := db.State(ctx)
	if err != nil {
		return false, err
	}
	return state.EntryCount > 0, nil
}

// IsStale reports whether the cache was never synced or is older than maxAge.
func (db *DB) IsStale(ctx context.Context, maxAge time.Duration) (bool, error) {
	state, err := db.State(ctx)
	if err != nil {
		return false, err
	}
	if state.LastSyncedAt == nil {
		return true, nil
	}
	return db.now().Sub(*state.LastSyncedAt) > maxAge, nil
}

// IdentityChanged reports whether a source identity was recorded and differs
// from current. A cache that never recorded one has not changed.
func (db *DB) IdentityChanged(ctx context.Context, current string) (bool, error) {
	state, err := db.State(ctx)
	if err != nil {
		return false, err
	}
	return state.SourceIdentity != "" && state.SourceIdentity != current, nil
}

// Clear removes every cached entry and stored upstream response and resets
// the sync record. The source identity is kept.
func (db *DB) Clear(ctx context.Context) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache`); err != nil {
			return fmt.Errorf("failed to delete cached responses: %w", err)
		}
		_, err := tx.ExecContext(ctx, `UPDATE sync_state SET
			entry_count = 0, last_synced_at = NULL, last_sync_duration_ms = NULL
			WHERE id = 1`)
		if err != nil {
			return fmt.Errorf("failed to reset sync state: %w", err)
		}
		return nil
	})
}

// MarkSyncFailed zeroes the entry count and drops the sync timestamp so the
// cache reads as empty and stale. Rows already written stay until the next
// successful sync sweeps them.
func (db *DB) MarkSyncFailed(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `UPDATE sync_state SET entry_count = 0, last_synced_at = NULL WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to mark sync failed: %w", err)
	}
	return nil
}
