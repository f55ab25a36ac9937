package ops

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/logger"
	"github.com/hpungsan/eblog/internal/post"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string // sequence id or internal id

	// Editable fields (nil = don't change)
	Title     *string
	Content   *string
	Author    *string
	Tags      *[]string
	Published *bool
}

// Update modifies an existing post. The slug is re-derived only when the
// title changes. Read, mutate and write share one transaction.
func Update(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateInput) (*post.Post, error) {
	ref, err := post.ParseRef(input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title == nil && input.Content == nil && input.Author == nil && input.Tags == nil && input.Published == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	var title *string
	if input.Title != nil {
		t := strings.TrimSpace(*input.Title)
		if t == "" {
			return nil, errors.NewInvalidRequest("title must not be empty")
		}
		title = &t
	}
	if input.Content != nil && strings.TrimSpace(*input.Content) == "" {
		return nil, errors.NewInvalidRequest("content must not be empty")
	}

	var (
		updated *post.Post
		renamed bool
	)
	err = db.WithTx(ctx, database, func(tx *sql.Tx) error {
		p, err := db.GetByRef(ctx, tx, ref)
		if err != nil {
			return err
		}

		if title != nil && *title != p.Title {
			slug, err := post.DeriveSlug(ctx, *title, func(ctx context.Context, candidate string) (bool, error) {
				return db.SlugTaken(ctx, tx, candidate, p.InternalID)
			})
			if err != nil {
				return err
			}
			p.Title = *title
			p.Slug = slug
			renamed = true
		}
		if input.Content != nil {
			p.Content = *input.Content
		}
		if input.Author != nil {
			p.Author = post.NormalizeAuthor(*input.Author)
		}
		if input.Tags != nil {
			p.Tags = post.NormalizeTags(*input.Tags)
		}
		if input.Published != nil {
			p.Published = *input.Published
		}

		if err := db.UpdateByID(ctx, tx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err == db.ErrUniqueConstraint {
		return nil, errors.NewConflict("slug already in use; retry the request")
	}
	if err != nil {
		logFailure(ctx, "update", err)
		return nil, err
	}

	if renamed {
		logger.FromContext(ctx).Info("post renamed",
			zap.Int64("sequence_id", updated.SequenceID),
			zap.String("slug", updated.SlugValue()))
	}
	return updated, nil
}
