package db

import (
	"context"
	"database/sql"
)

// WithTx runs fn inside one transaction. The DSN's _txlock=immediate means
// the write lock is held from the first statement, so fn's reads and writes
// are not interleaved with another writer. fn's error rolls back and is
// returned unchanged.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}
