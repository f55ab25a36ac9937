package post

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/hpungsan/eblog/internal/errors"
)

func TestNormalizeAuthor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", DefaultAuthor},
		{"   ", DefaultAuthor},
		{" Jane ", "Jane"},
	}
	for _, tt := range tests {
		if got := NormalizeAuthor(tt.input); got != tt.want {
			t.Errorf("NormalizeAuthor(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" go ", "", "web", "  ", "go"})
	want := []string{"go", "web", "go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags = %v, want %v", got, want)
	}

	if got := NormalizeTags(nil); got == nil || len(got) != 0 {
		t.Errorf("NormalizeTags(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestParseTagList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  TagList
	}{
		{"empty string", "", TagList{}},
		{"single tag", "go", TagList{"go"}},
		{"comma separated", "go,web,api", TagList{"go", "web", "api"}},
		{"spaces trimmed", " go , web ", TagList{"go", "web"}},
		{"empties dropped", "go,,web,", TagList{"go", "web"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTagList(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTagList(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTagList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TagList
		wantErr bool
	}{
		{"array", `["go"," web ",""]`, TagList{"go", "web"}, false},
		{"comma string", `"go, web"`, TagList{"go", "web"}, false},
		{"empty array", `[]`, TagList{}, false},
		{"number", `42`, nil, true},
		{"mixed array", `["go", 1]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TagList
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFlag_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    Flag
		wantErr bool
	}{
		{`true`, true, false},
		{`false`, false, false},
		{`"true"`, true, false},
		{`"FALSE"`, false, false},
		{`"True"`, true, false},
		{`"yes"`, false, true},
		{`1`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got Flag
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFlag_Invalid(t *testing.T) {
	_, err := ParseFlag("maybe")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestPost_JSONOmitsAbsentSlug(t *testing.T) {
	p := Post{Title: "!!!", Content: "x", Tags: []string{}}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := m["slug"]; ok {
		t.Error("slug should be absent when nil")
	}
	for _, key := range []string{"internalId", "sequenceId", "title", "content", "author", "tags", "published", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing JSON field %q", key)
		}
	}
}
