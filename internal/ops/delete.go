package ops

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/logger"
	"github.com/hpungsan/eblog/internal/post"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string // sequence id or internal id
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	OK         bool   `json:"ok"`
	InternalID string `json:"internalId"`
	SequenceID int64  `json:"sequenceId"`
}

// Delete permanently removes a post. Its sequence id is never reassigned.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	ref, err := post.ParseRef(input.ID)
	if err != nil {
		return nil, err
	}

	p, err := db.DeleteByRef(ctx, database, ref)
	if err != nil {
		logFailure(ctx, "delete", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("post deleted",
		zap.Int64("sequence_id", p.SequenceID),
		zap.String("internal_id", p.InternalID))

	return &DeleteOutput{
		OK:         true,
		InternalID: p.InternalID,
		SequenceID: p.SequenceID,
	}, nil
}
