package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/post"
)

// ErrUniqueConstraint is returned when a write violates a UNIQUE constraint
// (sequence_id, internal_id or slug).
var ErrUniqueConstraint = &errors.BlogError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// postColumns is the column list scanned by scanPost, qualified by the "p" alias.
const postColumns = `p.internal_id, p.sequence_id, p.title, p.content, p.author,
	p.tags_json, p.published, p.slug, p.created_at, p.updated_at`

// returningColumns is postColumns unqualified; SQLite rejects aliases in RETURNING.
const returningColumns = `internal_id, sequence_id, title, content, author,
	tags_json, published, slug, created_at, updated_at`

// Insert stores a new post. CreatedAt/UpdatedAt must already be set.
func Insert(ctx context.Context, q Querier, p *post.Post) error {
	tagsJSON, err := marshalTags(p.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO posts (
			sequence_id, internal_id, title, content, author,
			tags_json, published, slug, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		p.SequenceID, p.InternalID, p.Title, p.Content, p.Author,
		tagsJSON, p.Published, toNullString(p.Slug),
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return storeErr(err)
	}

	return nil
}

// GetByRef resolves a post by sequence id or internal id, depending on the ref kind.
func GetByRef(ctx context.Context, q Querier, ref post.Ref) (*post.Post, error) {
	column, arg := refPredicate(ref)
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.` + column + ` = ?`

	p, err := scanPost(q.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(ref.String())
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

// SlugTaken reports whether another post already uses slug.
// excludeInternalID (if non-empty) is ignored, so a post never collides with itself.
func SlugTaken(ctx context.Context, q Querier, slug, excludeInternalID string) (bool, error) {
	query := `SELECT 1 FROM posts WHERE slug = ? AND internal_id <> ? LIMIT 1`

	var exists int
	err := q.QueryRowContext(ctx, query, slug, excludeInternalID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err)
	}
	return true, nil
}

// UpdateByID writes every mutable field of p and stamps updated_at.
// Does NOT change: internal_id, sequence_id, created_at.
func UpdateByID(ctx context.Context, q Querier, p *post.Post) error {
	tagsJSON, err := marshalTags(p.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE posts
		SET title = ?, content = ?, author = ?, tags_json = ?,
			published = ?, slug = ?, updated_at = ?
		WHERE internal_id = ?
	`

	result, err := q.ExecContext(ctx, query,
		p.Title, p.Content, p.Author, tagsJSON,
		p.Published, toNullString(p.Slug), toMillis(now),
		p.InternalID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return storeErr(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(p.InternalID)
	}

	p.UpdatedAt = fromMillis(toMillis(now))
	return nil
}

// DeleteByRef permanently removes the post addressed by ref and returns it.
func DeleteByRef(ctx context.Context, q Querier, ref post.Ref) (*post.Post, error) {
	column, arg := refPredicate(ref)
	query := `DELETE FROM posts WHERE ` + column + ` = ? RETURNING ` + returningColumns

	p, err := scanPost(q.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(ref.String())
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

// StreamAll returns rows for every post in sequence order.
// Caller must close rows and use ScanPostFromRows.
func StreamAll(ctx context.Context, q Querier) (*sql.Rows, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+postColumns+` FROM posts p ORDER BY p.sequence_id ASC`)
	if err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}

// ScanPostFromRows scans the current row of a StreamAll/search result.
func ScanPostFromRows(rows *sql.Rows) (*post.Post, error) {
	return scanPost(rows)
}

// refPredicate maps a ref to its unqualified lookup column and argument.
func refPredicate(ref post.Ref) (string, any) {
	if ref.Kind == post.RefSequence {
		return "sequence_id", ref.Sequence
	}
	return "internal_id", ref.InternalID
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost scans a single row selected with postColumns.
func scanPost(row rowScanner) (*post.Post, error) {
	var (
		p         post.Post
		tagsJSON  string
		published bool
		slug      sql.NullString
		createdAt int64
		updatedAt int64
	)

	err := row.Scan(
		&p.InternalID, &p.SequenceID, &p.Title, &p.Content, &p.Author,
		&tagsJSON, &published, &slug, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Published = published
	p.Slug = fromNullString(slug)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)

	p.Tags = []string{}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	return &p, nil
}

// marshalTags encodes tags as a JSON array; nil becomes [].
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	// (and "PRIMARY KEY" wording on some versions for rowid aliases)
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// storeErr wraps a driver error as STORE_UNAVAILABLE, leaving BlogErrors untouched.
func storeErr(err error) error {
	var bErr *errors.BlogError
	if stderrors.As(err, &bErr) {
		return err
	}
	return errors.NewStoreUnavailable(err)
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// toMillis converts a time to Unix milliseconds.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts Unix milliseconds to a UTC time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
