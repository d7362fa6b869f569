package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/plexsage/internal/domain"
)

// CountUnknown is returned by CountByFilter when the cache holds no entries.
const CountUnknown = -1

const upsertEntry = `INSERT INTO entries (
		id, title, artist, album, duration_ms, year, genres, user_rating, is_live, sync_run, synced_at
	) VALUES (
		:id, :title, :artist, :album, :duration_ms, :year, :genres, :user_rating, :is_live, :sync_run, :synced_at
	)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		artist = excluded.artist,
		album = excluded.album,
		duration_ms = excluded.duration_ms,
		year = excluded.year,
		genres = excluded.genres,
		user_rating = excluded.user_rating,
		is_live = excluded.is_live,
		sync_run = excluded.sync_run,
		synced_at = excluded.synced_at`

type entryRow struct {
	domain.CatalogEntry
	SyncRun  string    `db:"sync_run"`
	SyncedAt time.Time `db:"synced_at"`
}

func upsertEntries(ctx context.Context, tx *sqlx.Tx, runID string, at time.Time, entries []domain.CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareNamedContext(ctx, upsertEntry)
	if err != nil {
		return fmt.Errorf("failed to prepare entry upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // deferred cleanup

	for _, e := range entries {
		row := entryRow{CatalogEntry: e, SyncRun: runID, SyncedAt: at}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("failed to upsert entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// WriteBatch upserts one batch of a sync run in its own transaction.
func (db *DB) WriteBatch(ctx context.Context, runID string, entries []domain.CatalogEntry) error {
	at := db.now().UTC()
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		return upsertEntries(ctx, tx, runID, at, entries)
	})
}

// SyncTotals reports the cache contents after a finished sync.
type SyncTotals struct {
	Entries int
	Removed int64
}

// FinishSync writes the final batch, removes every entry not written by runID
// and records the completed sync, all in one transaction.
func (db *DB) FinishSync(ctx context.Context, runID, identity string, last []domain.CatalogEntry, took time.Duration) (SyncTotals, error) {
	at := db.now().UTC()
	var totals SyncTotals

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := upsertEntries(ctx, tx, runID, at, last); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE sync_run != ?`, runID)
		if err != nil {
			return fmt.Errorf("failed to sweep stale entries: %w", err)
		}
		totals.Removed, _ = res.RowsAffected()

		if err := tx.GetContext(ctx, &totals.Entries, `SELECT COUNT(*) FROM entries`); err != nil {
			return fmt.Errorf("failed to count entries: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE sync_state SET
			source_identity = ?, last_synced_at = ?, entry_count = ?, last_sync_duration_ms = ?
			WHERE id = 1`, identity, at, totals.Entries, took.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to update sync state: %w", err)
		}
		return nil
	})
	if err != nil {
		return SyncTotals{}, err
	}
	return totals, nil
}

// GetByFilter returns cached entries matching spec. With a limit and no genre
// filter the database samples; with a genre filter every candidate is read,
// genre-matched, and then sampled.
func (db *DB) GetByFilter(ctx context.Context, spec domain.FilterSpec) ([]domain.CatalogEntry, error) {
	query, args, err := selectEntries(spec)
	if err != nil {
		return nil, err
	}

	var entries []domain.CatalogEntry
	if err := db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	if len(spec.Genres) == 0 {
		return entries, nil
	}

	matched := entries[:0]
	for _, e := range entries {
		if e.Genres.OverlapsFold(spec.Genres) {
			matched = append(matched, e)
		}
	}
	return sample(matched, spec.Limit), nil
}

// GetEntry returns one cached entry by id.
func (db *DB) GetEntry(ctx context.Context, id string) (domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	query, args, err := selectEntry(id)
	if err != nil {
		return e, err
	}
	err = db.GetContext(ctx, &e, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}
	if err != nil {
		return e, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return e, nil
}

// sample returns limit random elements of entries in random order, or all of
// them when limit is 0 or not smaller than the slice.
func sample(entries []domain.CatalogEntry, limit int) []domain.CatalogEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	return entries[:limit]
}

// CountByFilter counts cached entries matching spec, ignoring Limit. It
// returns CountUnknown when the cache is empty.
func (db *DB) CountByFilter(ctx context.Context, spec domain.FilterSpec) (int, error) {
	has, err := db.HasEntries(ctx)
	if err != nil {
		return 0, err
	}
	if !has {
		return CountUnknown, nil
	}

	if len(spec.Genres) == 0 {
		query, args, err := countEntries(spec)
		if err != nil {
			return 0, err
		}
		var n int
		if err := db.GetContext(ctx, &n, query, args...); err != nil {
			return 0, fmt.Errorf("failed to count entries: %w", err)
		}
		return n, nil
	}

	query, args, err := selectGenres(spec)
	if err != nil {
		return 0, err
	}
	var genres []domain.StringSlice
	if err := db.SelectContext(ctx, &genres, query, args...); err != nil {
		return 0, fmt.Errorf("failed to query entry genres: %w", err)
	}

	n := 0
	for _, g := range genres {
		if g.OverlapsFold(spec.Genres) {
			n++
		}
	}
	return n, nil
}

// Stats counts cached entries per genre and per decade.
func (db *DB) Stats(ctx context.Context) (domain.LibraryStats, error) {
	var stats domain.LibraryStats

	if err := db.GetContext(ctx, &stats.TotalEntries, `SELECT COUNT(*) FROM entries`); err != nil {
		return stats, fmt.Errorf("failed to count entries: %w", err)
	}

	err := db.SelectContext(ctx, &stats.Genres, `
		SELECT g.value AS name, COUNT(*) AS count
		FROM entries, json_each(entries.genres) AS g
		GROUP BY g.value
		ORDER BY count DESC, name ASC`)
	if err != nil {
		return stats, fmt.Errorf("failed to count genres: %w", err)
	}

	err = db.SelectContext(ctx, &stats.Decades, `
		SELECT CAST((year / 10) * 10 AS TEXT) || 's' AS name, COUNT(*) AS count
		FROM entries
		WHERE year > 0
		GROUP BY year / 10
		ORDER BY year / 10 ASC`)
	if err != nil {
		return stats, fmt.Errorf("failed to count decades: %w", err)
	}

	return stats, nil
}
