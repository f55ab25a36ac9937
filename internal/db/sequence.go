package db

import (
	"context"
	"database/sql"
)

// postsCounter is the counters row backing post sequence ids.
const postsCounter = "posts"

// NextSequenceID advances the posts counter and returns the new value.
// Must run inside the transaction that inserts the post, so a rolled-back
// create never consumes a number. Store failures are returned, never
// replaced by a default.
func NextSequenceID(ctx context.Context, q Querier) (int64, error) {
	query := `
		INSERT INTO counters(name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`

	var next int64
	if err := q.QueryRowContext(ctx, query, postsCounter).Scan(&next); err != nil {
		return 0, storeErr(err)
	}
	return next, nil
}

// BumpSequence raises the posts counter to at least atLeast.
// Used after importing posts that carry their own sequence ids.
func BumpSequence(ctx context.Context, q Querier, atLeast int64) error {
	query := `
		INSERT INTO counters(name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = MAX(value, excluded.value)
	`
	if _, err := q.ExecContext(ctx, query, postsCounter, atLeast); err != nil {
		return storeErr(err)
	}
	return nil
}

// CurrentSequence returns the last assigned sequence id (0 when none).
func CurrentSequence(ctx context.Context, q Querier) (int64, error) {
	var value int64
	err := q.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, postsCounter).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr(err)
	}
	return value, nil
}

// ResyncSequence raises the posts counter to the highest stored sequence id.
// Repairs a counter that fell behind rows written outside NextSequenceID.
func ResyncSequence(ctx context.Context, q Querier) error {
	query := `
		INSERT INTO counters(name, value)
		SELECT ?, COALESCE(MAX(sequence_id), 0) FROM posts WHERE true
		ON CONFLICT(name) DO UPDATE SET value = MAX(value, excluded.value)
	`
	if _, err := q.ExecContext(ctx, query, postsCounter); err != nil {
		return storeErr(err)
	}
	return nil
}
