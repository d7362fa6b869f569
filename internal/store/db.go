package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Applied to every pooled connection through the DSN.
var connPragmas = []string{
	"_pragma=journal_mode(WAL)",
	"_pragma=busy_timeout(30000)",
	"_txlock=immediate",
}

type DB struct {
	*sqlx.DB
	now func() time.Time
}

func NewSQLiteDB(dsn string) (*DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	var mode string
	if err := db.Get(&mode, "PRAGMA journal_mode"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") && !strings.Contains(dsn, ":memory:") {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: journal_mode is %q", mode)
	}

	// Apply schema
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{DB: db, now: time.Now}, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(connPragmas, "&")
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
