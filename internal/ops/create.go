package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/logger"
	"github.com/hpungsan/eblog/internal/metrics"
	"github.com/hpungsan/eblog/internal/post"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Title     string   // required
	Content   string   // required
	Author    string   // default: "Anonymous"
	Tags      []string // trimmed, empties dropped
	Published *bool    // default: true
}

// Create validates and persists a new post. The sequence id and slug are
// assigned inside the insert transaction.
func Create(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateInput) (*post.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Content) == "" {
		return nil, errors.NewInvalidRequest("title and content are required")
	}

	published := true
	if input.Published != nil {
		published = *input.Published
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	p := &post.Post{
		InternalID: id,
		Title:      title,
		Content:    input.Content,
		Author:     post.NormalizeAuthor(input.Author),
		Tags:       post.NormalizeTags(input.Tags),
		Published:  published,
	}

	attempts := writeAttempts(cfg)
	for attempt := 1; attempt <= attempts; attempt++ {
		err = db.WithTx(ctx, database, func(tx *sql.Tx) error {
			return insertNew(ctx, tx, p)
		})
		if err != db.ErrUniqueConstraint {
			break
		}
		metrics.WriteConflictsTotal.Inc()
		logger.FromContext(ctx).Warn("create conflicted, retrying",
			zap.Int("attempt", attempt), zap.String("title", title))
		if rerr := db.ResyncSequence(ctx, database); rerr != nil {
			err = rerr
			break
		}
	}
	if err == db.ErrUniqueConstraint {
		return nil, errors.NewConflict("could not assign a unique id and slug; retry the request")
	}
	if err != nil {
		logFailure(ctx, "create", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("post created",
		zap.Int64("sequence_id", p.SequenceID),
		zap.String("internal_id", p.InternalID),
		zap.String("slug", p.SlugValue()))
	return p, nil
}

// insertNew assigns the sequence id and slug and inserts p, all on tx.
func insertNew(ctx context.Context, tx *sql.Tx, p *post.Post) error {
	seq, err := db.NextSequenceID(ctx, tx)
	if err != nil {
		return err
	}

	slug, err := post.DeriveSlug(ctx, p.Title, func(ctx context.Context, candidate string) (bool, error) {
		return db.SlugTaken(ctx, tx, candidate, "")
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	p.SequenceID = seq
	p.Slug = slug
	p.CreatedAt = now
	p.UpdatedAt = now

	return db.Insert(ctx, tx, p)
}
