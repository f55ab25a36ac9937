package post

import (
	"testing"

	"github.com/hpungsan/eblog/internal/errors"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     RefKind
		sequence int64
		internal string
	}{
		{"digits", "42", RefSequence, 42, ""},
		{"leading zeros", "007", RefSequence, 7, ""},
		{"trimmed", " 3 ", RefSequence, 3, ""},
		{"ulid", "01J9ZQ3M7X5V2K8N4R6T1W0Y9B", RefInternal, 0, "01J9ZQ3M7X5V2K8N4R6T1W0Y9B"},
		{"negative is not digits", "-1", RefInternal, 0, "-1"},
		{"mixed", "12abc", RefInternal, 0, "12abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseRef(tt.input)
			if err != nil {
				t.Fatalf("ParseRef(%q) failed: %v", tt.input, err)
			}
			if ref.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", ref.Kind, tt.kind)
			}
			if ref.Sequence != tt.sequence {
				t.Errorf("Sequence = %d, want %d", ref.Sequence, tt.sequence)
			}
			if ref.InternalID != tt.internal {
				t.Errorf("InternalID = %q, want %q", ref.InternalID, tt.internal)
			}
		})
	}
}

func TestParseRef_Empty(t *testing.T) {
	_, err := ParseRef("  ")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestParseRef_Overflow(t *testing.T) {
	_, err := ParseRef("99999999999999999999999")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}
