package post

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/eblog/internal/errors"
)

// NormalizeAuthor trims the author and falls back to DefaultAuthor when blank.
func NormalizeAuthor(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultAuthor
	}
	return s
}

// NormalizeTags trims every tag and drops empty entries.
// Order and duplicates are preserved. Never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// TagList is a tag list as supplied by a client: either a JSON array of
// strings or one comma-separated string.
type TagList []string

// ParseTagList splits a comma-separated string into tags.
func ParseTagList(s string) TagList {
	return TagList(NormalizeTags(strings.Split(s, ",")))
}

// UnmarshalJSON accepts ["a","b"] or "a, b".
func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTagList(s)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.NewInvalidRequest("tags must be an array of strings or a comma-separated string")
	}
	*t = TagList(NormalizeTags(items))
	return nil
}

// Flag is a boolean as supplied by a client: a JSON bool or the strings
// "true"/"false" (case-insensitive).
type Flag bool

// ParseFlag parses "true"/"false" case-insensitively.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.NewInvalidRequest(fmt.Sprintf("published must be true or false, got %q", s))
	}
}

// UnmarshalJSON accepts true, false, "true" or "false".
func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.NewInvalidRequest("published must be a boolean")
	}
	v, err := ParseFlag(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}
