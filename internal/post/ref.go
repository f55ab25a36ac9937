package post

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hpungsan/eblog/internal/errors"
)

// RefKind selects how a Ref is resolved against the store.
type RefKind int

const (
	// RefInternal resolves by the store-assigned ULID.
	RefInternal RefKind = iota
	// RefSequence resolves by the human-facing sequence id.
	RefSequence
)

var allDigits = regexp.MustCompile(`^\d+$`)

// Ref is a parsed post identifier: either a sequence id or an internal id.
type Ref struct {
	Kind       RefKind
	Sequence   int64
	InternalID string
	Raw        string
}

// ParseRef classifies raw as a sequence id (all digits) or an internal id.
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, errors.NewInvalidRequest("post id is required")
	}

	if allDigits.MatchString(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Out of int64 range: no post can carry it.
			return Ref{}, errors.NewNotFound(raw)
		}
		return Ref{Kind: RefSequence, Sequence: n, Raw: raw}, nil
	}

	return Ref{Kind: RefInternal, InternalID: raw, Raw: raw}, nil
}

// String returns the identifier as the caller supplied it.
func (r Ref) String() string {
	return r.Raw
}
