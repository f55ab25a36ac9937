package ops

import (
	"context"
	"reflect"
	"testing"

	"github.com/hpungsan/eblog/internal/errors"
)

func TestUpdate_AuthorOnlyLeavesRestUnchanged(t *testing.T) {
	database, cfg, _ := setup(t)
	created := mustCreate(t, database, cfg, "Hello World", "body", "go")

	updated, err := Update(context.Background(), database, cfg, UpdateInput{ID: "1", Author: stringPtr("Jane")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Author != "Jane" {
		t.Errorf("Author = %q, want Jane", updated.Author)
	}
	if updated.Title != created.Title || updated.Content != created.Content {
		t.Errorf("title/content changed: %q/%q", updated.Title, updated.Content)
	}
	if updated.SlugValue() != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", updated.SlugValue())
	}
	if !reflect.DeepEqual(updated.Tags, []string{"go"}) {
		t.Errorf("Tags = %v, want [go]", updated.Tags)
	}
	if updated.SequenceID != created.SequenceID || updated.InternalID != created.InternalID {
		t.Error("ids changed on update")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
}

func TestUpdate_RenameRederivesSlug(t *testing.T) {
	database, cfg, _ := setup(t)
	mustCreate(t, database, cfg, "Taken Title", "c")
	p := mustCreate(t, database, cfg, "Original", "c")

	updated, err := Update(context.Background(), database, cfg, UpdateInput{ID: p.InternalID, Title: stringPtr("Taken Title")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.SlugValue() != "taken-title-1" {
		t.Errorf("Slug = %q, want taken-title-1", updated.SlugValue())
	}

	// The old slug is free again
	again := mustCreate(t, database, cfg, "Original", "c")
	if again.SlugValue() != "original" {
		t.Errorf("Slug = %q, want original", again.SlugValue())
	}
}

func TestUpdate_RenameKeepsOwnSlug(t *testing.T) {
	database, cfg, _ := setup(t)
	mustCreate(t, database, cfg, "Hello World", "c")

	updated, err := Update(context.Background(), database, cfg, UpdateInput{ID: "1", Title: stringPtr("Hello World!")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Hello World!" {
		t.Errorf("Title = %q", updated.Title)
	}
	if updated.SlugValue() != "hello-world" {
		t.Errorf("Slug = %q, want hello-world (own slug is not a collision)", updated.SlugValue())
	}
}

func TestUpdate_SameTitleKeepsSuffixedSlug(t *testing.T) {
	database, cfg, _ := setup(t)
	mustCreate(t, database, cfg, "Dup", "c")
	second := mustCreate(t, database, cfg, "Dup", "c")

	updated, err := Update(context.Background(), database, cfg, UpdateInput{ID: "2", Title: stringPtr("  Dup ")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.SlugValue() != second.SlugValue() {
		t.Errorf("Slug = %q, want unchanged %q", updated.SlugValue(), second.SlugValue())
	}
}

func TestUpdate_RenameToPunctuationClearsSlug(t *testing.T) {
	database, cfg, _ := setup(t)
	mustCreate(t, database, cfg, "Has Slug", "c")

	updated, err := Update(context.Background(), database, cfg, UpdateInput{ID: "1", Title: stringPtr("!!!")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Slug != nil {
		t.Errorf("Slug = %q, want nil", *updated.Slug)
	}
}

func TestUpdate_AllFields(t *testing.T) {
	database, cfg, _ := setup(t)
	mustCreate(t, database, cfg, "T", "c", "old")

	tags := []string{" new ", ""}
	updated, err := Update(context.Background(), database, cfg, UpdateInput{
		ID:        "1",
		Content:   stringPtr("fresh"),
		Author:    stringPtr("   "),
		Tags:      &tags,
		Published: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Content != "fresh" {
		t.Errorf("Content = %q", updated.Content)
	}
	if updated.Author != "Anonymous" {
		t.Errorf("Author = %q, want Anonymous for blank", updated.Author)
	}
	if !reflect.DeepEqual(updated.Tags, []string{"new"}) {
		t.Errorf("Tags = %v, want [new]", updated.Tags)
	}
	if updated.Published {
		t.Error("Published = true, want false")
	}

	got, err := Get(context.Background(), database, GetInput{ID: "1"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "fresh" || got.Published {
		t.Errorf("stored post not updated: %+v", got)
	}
}

func TestUpdate_Validation(t *testing.T) {
	database, cfg, _ := setup(t)
	mustCreate(t, database, cfg, "T", "c")

	tests := []struct {
		name  string
		input UpdateInput
	}{
		{"no fields", UpdateInput{ID: "1"}},
		{"blank title", UpdateInput{ID: "1", Title: stringPtr("  ")}},
		{"blank content", UpdateInput{ID: "1", Content: stringPtr("")}},
		{"missing id", UpdateInput{Title: stringPtr("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Update(context.Background(), database, cfg, tt.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("err = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestUpdate_NotFound(t *testing.T) {
	database, cfg, _ := setup(t)

	_, err := Update(context.Background(), database, cfg, UpdateInput{ID: "5", Title: stringPtr("x")})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}
