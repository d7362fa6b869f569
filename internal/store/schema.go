package store

const Schema = `
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	year INTEGER NOT NULL DEFAULT 0,  -- 0 when unknown
	genres TEXT NOT NULL DEFAULT '[]',  -- JSON array
	user_rating INTEGER,  -- 0-10, NULL when unrated
	is_live INTEGER NOT NULL DEFAULT 0,

	-- Run that last wrote the row; rows from older runs are swept at the end of a sync
	sync_run TEXT NOT NULL DEFAULT '',
	synced_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_entries_year ON entries(year);
CREATE INDEX IF NOT EXISTS idx_entries_user_rating ON entries(user_rating);
CREATE INDEX IF NOT EXISTS idx_entries_is_live ON entries(is_live);
CREATE INDEX IF NOT EXISTS idx_entries_sync_run ON entries(sync_run);

CREATE TABLE IF NOT EXISTS sync_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	source_identity TEXT NOT NULL DEFAULT '',
	last_synced_at DATETIME,
	entry_count INTEGER NOT NULL DEFAULT 0,
	last_sync_duration_ms INTEGER
);

INSERT OR IGNORE INTO sync_state (id) VALUES (1);

-- Short-lived copies of upstream responses
CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);
`
