package post

import "time"

// DefaultAuthor is assigned when a post is created without an author.
const DefaultAuthor = "Anonymous"

// Post is a single blog post as persisted in the store.
type Post struct {
	// InternalID is a ULID assigned by the store; accepted as an alternate lookup key
	InternalID string `json:"internalId"`

	// SequenceID is the human-facing id, assigned once at creation and never reused
	SequenceID int64 `json:"sequenceId"`

	// Title is required and stored trimmed
	Title string `json:"title"`

	// Content is the Markdown body
	Content string `json:"content"`

	// Author defaults to DefaultAuthor
	Author string `json:"author"`

	// Tags keeps caller order; duplicates are preserved (stored as JSON in DB)
	Tags []string `json:"tags"`

	// Published defaults to true
	Published bool `json:"published"`

	// Slug is derived from Title; nil when the title has no URL-safe characters
	Slug *string `json:"slug,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SlugValue returns the slug or "" when the post has none.
func (p *Post) SlugValue() string {
	if p.Slug == nil {
		return ""
	}
	return *p.Slug
}
