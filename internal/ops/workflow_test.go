package ops

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/eblog/internal/errors"
)

// TestFullWorkflow exercises the complete post lifecycle:
// create → get (both ids) → update → list/search → delete → get (not found)
func TestFullWorkflow(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()

	// 1. Create
	published := false
	created, err := Create(ctx, database, cfg, CreateInput{
		Title:     "Hello World",
		Content:   "First **post** about sqlite",
		Tags:      []string{"intro", "sqlite"},
		Published: &published,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.SequenceID)
	require.Equal(t, "hello-world", created.SlugValue())

	// 2. Get by sequence id and by internal id
	bySeq, err := Get(ctx, database, GetInput{ID: strconv.FormatInt(created.SequenceID, 10)})
	require.NoError(t, err)
	byInternal, err := Get(ctx, database, GetInput{ID: created.InternalID})
	require.NoError(t, err)
	require.Equal(t, bySeq.InternalID, byInternal.InternalID)

	// 3. Rename and publish
	newTitle := "Hello SQLite"
	publish := true
	updated, err := Update(ctx, database, cfg, UpdateInput{ID: created.InternalID, Title: &newTitle, Published: &publish})
	require.NoError(t, err)
	require.Equal(t, "hello-sqlite", updated.SlugValue())
	require.True(t, updated.Published)
	require.Equal(t, created.SequenceID, updated.SequenceID)

	// 4. Search finds it by the new title, tag filter keeps it
	list, err := List(ctx, database, cfg, ListInput{Query: "sqlite", Tag: "intro"})
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalCount)
	require.Equal(t, created.InternalID, list.Items[0].InternalID)

	// 5. Delete
	deleted, err := Delete(ctx, database, DeleteInput{ID: "1"})
	require.NoError(t, err)
	require.True(t, deleted.OK)

	// 6. Gone
	_, err = Get(ctx, database, GetInput{ID: created.InternalID})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	list, err = List(ctx, database, cfg, ListInput{})
	require.NoError(t, err)
	require.Equal(t, 0, list.TotalCount)
	require.Equal(t, 1, list.TotalPages)
}
