package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/post"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string // sequence id ("42") or internal id
}

// Get retrieves a post by sequence id or internal id.
func Get(ctx context.Context, database *sql.DB, input GetInput) (*post.Post, error) {
	ref, err := post.ParseRef(input.ID)
	if err != nil {
		return nil, err
	}

	p, err := db.GetByRef(ctx, database, ref)
	if err != nil {
		logFailure(ctx, "get", err)
		return nil, err
	}
	return p, nil
}
