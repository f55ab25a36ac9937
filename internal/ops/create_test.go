package ops

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/post"
)

func TestCreate_Defaults(t *testing.T) {
	database, cfg, _ := setup(t)

	p, err := Create(context.Background(), database, cfg, CreateInput{
		Title:   "  Hello, World!  ",
		Content: "# Heading\n\nBody",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if p.SequenceID != 1 {
		t.Errorf("SequenceID = %d, want 1", p.SequenceID)
	}
	if len(p.InternalID) != 26 {
		t.Errorf("InternalID = %q, want a 26-char ULID", p.InternalID)
	}
	if p.Title != "Hello, World!" {
		t.Errorf("Title = %q, want trimmed", p.Title)
	}
	if p.Author != post.DefaultAuthor {
		t.Errorf("Author = %q, want %q", p.Author, post.DefaultAuthor)
	}
	if !p.Published {
		t.Error("Published = false, want true by default")
	}
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty slice", p.Tags)
	}
	if p.SlugValue() != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", p.SlugValue())
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v", p.CreatedAt, p.UpdatedAt)
	}

	// Round-trips through the store unchanged
	got, err := Get(context.Background(), database, GetInput{ID: "1"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.InternalID != p.InternalID || got.Title != p.Title || got.SlugValue() != p.SlugValue() {
		t.Errorf("Get = %+v, want %+v", got, p)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("stored CreatedAt = %v, want %v", got.CreatedAt, p.CreatedAt)
	}
}

func TestCreate_Fields(t *testing.T) {
	database, cfg, _ := setup(t)

	p, err := Create(context.Background(), database, cfg, CreateInput{
		Title:     "Tagged",
		Content:   "c",
		Author:    "  Jane  ",
		Tags:      []string{" go ", "", "web", "go"},
		Published: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if p.Author != "Jane" {
		t.Errorf("Author = %q, want Jane", p.Author)
	}
	if !reflect.DeepEqual(p.Tags, []string{"go", "web", "go"}) {
		t.Errorf("Tags = %v, want [go web go]", p.Tags)
	}
	if p.Published {
		t.Error("Published = true, want false")
	}
}

func TestCreate_Validation(t *testing.T) {
	database, cfg, _ := setup(t)

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing title", CreateInput{Content: "c"}},
		{"blank title", CreateInput{Title: "   ", Content: "c"}},
		{"missing content", CreateInput{Title: "t"}},
		{"blank content", CreateInput{Title: "t", Content: "\n\t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(context.Background(), database, cfg, tt.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("err = %v, want INVALID_REQUEST", err)
			}
		})
	}

	// Nothing was persisted, and no id was consumed
	p := mustCreate(t, database, cfg, "First", "c")
	if p.SequenceID != 1 {
		t.Errorf("SequenceID = %d, want 1", p.SequenceID)
	}
}

func TestCreate_SlugCollision(t *testing.T) {
	database, cfg, _ := setup(t)

	first := mustCreate(t, database, cfg, "Hello World", "a")
	second := mustCreate(t, database, cfg, "Hello World", "b")
	third := mustCreate(t, database, cfg, "hello   world!", "c")

	if first.SlugValue() != "hello-world" {
		t.Errorf("first slug = %q, want hello-world", first.SlugValue())
	}
	if second.SlugValue() != "hello-world-1" {
		t.Errorf("second slug = %q, want hello-world-1", second.SlugValue())
	}
	if third.SlugValue() != "hello-world-2" {
		t.Errorf("third slug = %q, want hello-world-2", third.SlugValue())
	}
}

func TestCreate_NoSlugForPunctuationTitle(t *testing.T) {
	database, cfg, _ := setup(t)

	a := mustCreate(t, database, cfg, "!!!", "a")
	b := mustCreate(t, database, cfg, "???", "b")

	if a.Slug != nil || b.Slug != nil {
		t.Errorf("slugs = %v, %v, want nil", a.Slug, b.Slug)
	}
}

func TestCreate_SequentialIDs(t *testing.T) {
	database, cfg, _ := setup(t)

	for want := int64(1); want <= 5; want++ {
		p := mustCreate(t, database, cfg, "Post", "c")
		if p.SequenceID != want {
			t.Fatalf("SequenceID = %d, want %d", p.SequenceID, want)
		}
	}
}

func TestCreate_ConcurrentIDsAreDense(t *testing.T) {
	database, cfg, _ := setup(t)

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  []int64
		errs []error
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := Create(context.Background(), database, cfg, CreateInput{Title: "Same Title", Content: "c"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids = append(ids, p.SequenceID)
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("concurrent creates failed: %v", errs)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("ids = %v, want 1..%d with no gaps or duplicates", ids, n)
		}
	}

	// Slugs are unique as well
	out, err := List(context.Background(), database, cfg, ListInput{PageSize: n})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	seen := map[string]bool{}
	for _, p := range out.Items {
		if seen[p.SlugValue()] {
			t.Errorf("duplicate slug %q", p.SlugValue())
		}
		seen[p.SlugValue()] = true
	}
}

func TestCreate_RecoversFromStaleCounter(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()

	// Row written without advancing the counter
	now := time.Now().UTC()
	external := &post.Post{
		InternalID: "01EXTERNALROW",
		SequenceID: 1,
		Title:      "External",
		Content:    "c",
		Author:     post.DefaultAuthor,
		Tags:       []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Insert(ctx, database, external); err != nil {
		t.Fatalf("db.Insert failed: %v", err)
	}

	p := mustCreate(t, database, cfg, "New", "c")
	if p.SequenceID != 2 {
		t.Errorf("SequenceID = %d, want 2", p.SequenceID)
	}
}

func TestCreate_StoreUnavailable(t *testing.T) {
	database, cfg, _ := setup(t)
	database.Close()

	p, err := Create(context.Background(), database, cfg, CreateInput{Title: "t", Content: "c"})
	if !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want STORE_UNAVAILABLE", err)
	}
	if p != nil {
		t.Errorf("post = %+v, want nil", p)
	}
}

func TestCreate_Cancelled(t *testing.T) {
	database, cfg, _ := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Create(ctx, database, cfg, CreateInput{Title: "t", Content: "c"})
	if !errors.Is(err, errors.ErrCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}

	// The cancelled create consumed no id
	p := mustCreate(t, database, cfg, "After", "c")
	if p.SequenceID != 1 {
		t.Errorf("SequenceID = %d, want 1", p.SequenceID)
	}
}
