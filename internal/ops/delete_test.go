package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/eblog/internal/errors"
)

func TestDelete_BySequenceID(t *testing.T) {
	database, cfg, _ := setup(t)
	p := mustCreate(t, database, cfg, "Doomed", "c")

	out, err := Delete(context.Background(), database, DeleteInput{ID: "1"})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !out.OK || out.InternalID != p.InternalID || out.SequenceID != 1 {
		t.Errorf("Delete output = %+v", out)
	}

	_, err = Get(context.Background(), database, GetInput{ID: p.InternalID})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want NOT_FOUND", err)
	}
}

func TestDelete_Twice(t *testing.T) {
	database, cfg, _ := setup(t)
	p := mustCreate(t, database, cfg, "Once", "c")

	if _, err := Delete(context.Background(), database, DeleteInput{ID: p.InternalID}); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	_, err := Delete(context.Background(), database, DeleteInput{ID: p.InternalID})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Delete err = %v, want NOT_FOUND", err)
	}
}

func TestDelete_Missing(t *testing.T) {
	database, _, _ := setup(t)

	_, err := Delete(context.Background(), database, DeleteInput{ID: "404"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestDelete_IDNotReused(t *testing.T) {
	database, cfg, _ := setup(t)
	mustCreate(t, database, cfg, "A", "c")
	mustCreate(t, database, cfg, "B", "c")

	if _, err := Delete(context.Background(), database, DeleteInput{ID: "2"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	p := mustCreate(t, database, cfg, "C", "c")
	if p.SequenceID != 3 {
		t.Errorf("SequenceID = %d, want 3", p.SequenceID)
	}
}
