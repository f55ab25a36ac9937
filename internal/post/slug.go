package post

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hpungsan/eblog/internal/errors"
)

// MaxSlugProbes bounds the sequential suffix scan in DeriveSlug.
const MaxSlugProbes = 10000

// separatorRun matches a run of whitespace, non-word characters or hyphens.
var separatorRun = regexp.MustCompile(`[\s\W-]+`)

// Slugify lowercases and trims the title, collapses every run of whitespace
// or non-word characters into one hyphen and strips edge hyphens.
// Returns "" when nothing URL-safe remains.
func Slugify(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = separatorRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugChecker reports whether a slug candidate is already used by another post.
type SlugChecker func(ctx context.Context, candidate string) (bool, error)

// DeriveSlug returns the first free slug among base, base-1, base-2, ...
// Returns nil (no slug) when the title has no slug. Checker errors are
// returned unchanged.
func DeriveSlug(ctx context.Context, title string, isTaken SlugChecker) (*string, error) {
	base := Slugify(title)
	if base == "" {
		return nil, nil
	}

	candidate := base
	for n := 1; n <= MaxSlugProbes; n++ {
		taken, err := isTaken(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !taken {
			return &candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}

	return nil, errors.NewConflict(fmt.Sprintf("no free slug for %q after %d attempts", base, MaxSlugProbes))
}
