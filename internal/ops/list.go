package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/logger"
	"github.com/hpungsan/eblog/internal/metrics"
	"github.com/hpungsan/eblog/internal/post"
)

// Result orderings reported in ListOutput.Sort.
const (
	SortRelevance = "relevance"       // full-text index, best match first
	SortSubstring = "substring"       // substring fallback, newest first
	SortRecent    = "created_at_desc" // no query, newest first
)

// MaxQueryLength bounds the search text in characters.
const MaxQueryLength = db.MaxSearchQueryChars

// ListInput contains parameters for the List operation.
type ListInput struct {
	Query    string // optional free-text search
	Tag      string // optional exact tag filter
	Page     int    // 1-based; < 1 means 1
	PageSize int    // <= 0 means the configured default
}

// ListOutput contains one page of posts.
type ListOutput struct {
	Items      []*post.Post `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
	TotalCount int          `json:"totalCount"`
	Sort       string       `json:"sort"`
}

// List returns a page of posts. With a query it tries the full-text index
// first and falls back to substring matching only when the index matched
// nothing; without one it lists newest first. The tag filter applies to
// every strategy.
func List(ctx context.Context, database *sql.DB, cfg *config.Config, input ListInput) (*ListOutput, error) {
	query := strings.TrimSpace(input.Query)
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	var filters db.SearchFilters
	if tag := strings.TrimSpace(input.Tag); tag != "" {
		filters.Tag = &tag
	}

	page, pageSize := pageWindow(cfg, input.Page, input.PageSize)
	offset := (page - 1) * pageSize

	var (
		items []*post.Post
		total int
		sort  string
		err   error
	)

	switch {
	case query == "":
		sort = SortRecent
		items, total, err = db.ListRecent(ctx, database, filters, pageSize, offset)
	default:
		sort = SortRelevance
		if match := db.BuildMatchQuery(query); match != "" {
			items, total, err = db.SearchIndexed(ctx, database, match, filters, pageSize, offset)
		}
		if err == nil && total == 0 {
			sort = SortSubstring
			metrics.SearchFallbacksTotal.Inc()
			logger.FromContext(ctx).Debug("index search matched nothing, using substring match",
				zap.String("query", query))
			items, total, err = db.SearchSubstring(ctx, database, query, filters, pageSize, offset)
		}
	}
	if err != nil {
		logFailure(ctx, "list", err)
		return nil, err
	}

	metrics.SearchesTotal.WithLabelValues(sort).Inc()

	return &ListOutput{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
		TotalCount: total,
		Sort:       sort,
	}, nil
}
