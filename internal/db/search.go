package db

import (
	"context"
	"strings"
	"unicode"

	"github.com/hpungsan/eblog/internal/post"
)

// MaxSearchQueryChars is the maximum accepted query length in characters.
const MaxSearchQueryChars = 1000

// SearchFilters restricts list and search results.
type SearchFilters struct {
	Tag *string // exact, case-sensitive tag match
}

// BuildMatchQuery converts free text into an FTS5 MATCH expression.
// Each run of letters/digits becomes a quoted term; terms are OR-ed.
// Returns "" when the text has no indexable terms.
func BuildMatchQuery(text string) string {
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// EscapeLike escapes LIKE wildcards so text matches literally with ESCAPE '\'.
func EscapeLike(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}

// SearchIndexed runs a relevance-ranked full-text search over title and content.
// Title matches weigh 5x content matches. Returns the page and the total match count.
func SearchIndexed(ctx context.Context, q Querier, match string, filters SearchFilters, limit, offset int) ([]*post.Post, int, error) {
	from := ` FROM posts_fts JOIN posts p ON p.sequence_id = posts_fts.rowid
		WHERE posts_fts MATCH ?`
	args := []any{match}

	tagSQL, tagArgs := tagFilter(filters)
	from += tagSQL
	args = append(args, tagArgs...)

	return pagedPosts(ctx, q, from,
		` ORDER BY bm25(posts_fts, 5.0, 1.0), p.sequence_id DESC`,
		args, limit, offset)
}

// SearchSubstring matches text case-insensitively as a substring of the title,
// the content or any tag. Newest first.
func SearchSubstring(ctx context.Context, q Querier, text string, filters SearchFilters, limit, offset int) ([]*post.Post, int, error) {
	pattern := "%" + EscapeLike(text) + "%"

	from := ` FROM posts p
		WHERE (p.title LIKE ? ESCAPE '\'
			OR p.content LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM json_each(p.tags_json) AS t WHERE t.value LIKE ? ESCAPE '\'))`
	args := []any{pattern, pattern, pattern}

	tagSQL, tagArgs := tagFilter(filters)
	from += tagSQL
	args = append(args, tagArgs...)

	return pagedPosts(ctx, q, from, ` ORDER BY p.created_at DESC, p.sequence_id DESC`, args, limit, offset)
}

// ListRecent returns posts matching filters, newest first.
func ListRecent(ctx context.Context, q Querier, filters SearchFilters, limit, offset int) ([]*post.Post, int, error) {
	from := ` FROM posts p WHERE 1=1`
	tagSQL, args := tagFilter(filters)
	from += tagSQL

	return pagedPosts(ctx, q, from, ` ORDER BY p.created_at DESC, p.sequence_id DESC`, args, limit, offset)
}

// tagFilter returns the AND clause restricting rows to posts carrying filters.Tag.
func tagFilter(filters SearchFilters) (string, []any) {
	if filters.Tag == nil {
		return "", nil
	}
	return ` AND EXISTS (SELECT 1 FROM json_each(p.tags_json) AS tf WHERE tf.value = ?)`, []any{*filters.Tag}
}

// pagedPosts counts the rows described by from/args, then fetches one page in order.
func pagedPosts(ctx context.Context, q Querier, from, order string, args []any, limit, offset int) ([]*post.Post, int, error) {
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, storeErr(err)
	}

	posts := []*post.Post{}
	if total == 0 || offset >= total {
		return posts, total, nil
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := q.QueryContext(ctx, `SELECT `+postColumns+from+order+` LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, storeErr(err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr(err)
	}

	return posts, total, nil
}
