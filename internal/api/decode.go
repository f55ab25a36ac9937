package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/ops"
	"github.com/hpungsan/eblog/internal/post"
)

// maxBodyBytes bounds request bodies, multipart included.
const maxBodyBytes = 4 << 20

// postBody is a create or update request. Absent fields stay nil.
type postBody struct {
	Title     *string       `json:"title"`
	Content   *string       `json:"content"`
	Author    *string       `json:"author"`
	Tags      *post.TagList `json:"tags"`
	Published *post.Flag    `json:"published"`
}

// decodePostBody reads a JSON, urlencoded or multipart body.
func decodePostBody(w http.ResponseWriter, r *http.Request) (*postBody, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, errors.NewInvalidRequest("invalid Content-Type header")
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		return decodeJSONBody(r.Body)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid form body: %v", err))
		}
		return formBody(r.PostForm)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid multipart body: %v", err))
		}
		return formBody(url.Values(r.MultipartForm.Value))
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported content type %q", mediaType))
	}
}

func decodeJSONBody(body io.Reader) (*postBody, error) {
	var b postBody
	if err := json.NewDecoder(body).Decode(&b); err != nil {
		var bErr *errors.BlogError
		if stderrors.As(err, &bErr) {
			return nil, bErr
		}
		if err == io.EOF {
			return &b, nil
		}
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return &b, nil
}

// formBody maps form fields onto a postBody. A repeated tags field is taken
// as one tag per value; a single value is split on commas.
func formBody(form url.Values) (*postBody, error) {
	var b postBody
	field := func(name string) *string {
		if vs, ok := form[name]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}

	b.Title = field("title")
	b.Content = field("content")
	b.Author = field("author")

	if vs, ok := form["tags"]; ok {
		var tags post.TagList
		if len(vs) == 1 {
			tags = post.ParseTagList(vs[0])
		} else {
			tags = post.TagList(post.NormalizeTags(vs))
		}
		b.Tags = &tags
	}

	if v := field("published"); v != nil {
		flag, err := post.ParseFlag(*v)
		if err != nil {
			return nil, err
		}
		b.Published = &flag
	}
	return &b, nil
}

func (b *postBody) createInput() ops.CreateInput {
	input := ops.CreateInput{
		Title:     deref(b.Title),
		Content:   deref(b.Content),
		Author:    deref(b.Author),
		Published: flagPtr(b.Published),
	}
	if b.Tags != nil {
		input.Tags = []string(*b.Tags)
	}
	return input
}

func (b *postBody) updateInput(id string) ops.UpdateInput {
	input := ops.UpdateInput{
		ID:        id,
		Title:     b.Title,
		Content:   b.Content,
		Author:    b.Author,
		Published: flagPtr(b.Published),
	}
	if b.Tags != nil {
		tags := []string(*b.Tags)
		input.Tags = &tags
	}
	return input
}

// listInput reads q, tag, page and limit. Unparseable numbers fall back to
// the defaults.
func listInput(q url.Values) ops.ListInput {
	return ops.ListInput{
		Query:    q.Get("q"),
		Tag:      q.Get("tag"),
		Page:     atoiOrZero(q.Get("page")),
		PageSize: atoiOrZero(q.Get("limit")),
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func flagPtr(f *post.Flag) *bool {
	if f == nil {
		return nil
	}
	b := bool(*f)
	return &b
}
