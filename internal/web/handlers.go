package web

import (
	"database/sql"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/ops"
	"github.com/hpungsan/eblog/internal/post"
)

// Handlers contains HTTP route handlers for the browser client.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /posts: newest first, or search results when q is set.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	tag := r.URL.Query().Get("tag")

	result, err := ops.List(r.Context(), h.db, h.cfg, ops.ListInput{
		Query: query,
		Tag:   tag,
		Page:  parseIntParam(r, "page", 1),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := ListPageData{
		PageData:   h.renderer.page("Posts", "posts"),
		Items:      result.Items,
		Query:      query,
		Tag:        tag,
		Sort:       result.Sort,
		Page:       result.Page,
		TotalPages: result.TotalPages,
		TotalCount: result.TotalCount,
	}
	if result.Page > 1 {
		data.PrevURL = listURL(query, tag, result.Page-1)
	}
	if result.Page < result.TotalPages {
		data.NextURL = listURL(query, tag, result.Page+1)
	}

	h.renderer.renderPage(w, "list", data)
}

// HandleNew handles GET /posts/new.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "form", FormPageData{
		PageData:  h.renderer.page("New post", "new"),
		Action:    "/posts",
		Published: true,
	})
}

// HandleCreate handles POST /posts.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	form := readForm(r)
	input := ops.CreateInput{
		Title:     form.Title,
		Content:   form.Content,
		Author:    form.Author,
		Tags:      []string(post.ParseTagList(form.Tags)),
		Published: &form.Published,
	}

	p, err := ops.Create(r.Context(), h.db, h.cfg, input)
	if errors.Is(err, errors.ErrInvalidRequest) {
		form.PageData = h.renderer.page("New post", "new")
		form.Action = "/posts"
		form.Error = errors.As(err).Message
		h.renderer.renderPageStatus(w, http.StatusBadRequest, "form", form)
		return
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(p), http.StatusSeeOther)
}

// HandleDetail handles GET /posts/{id}: the id may be a sequence id or an internal id.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	p, err := ops.Get(r.Context(), h.db, ops.GetInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData:     h.renderer.page(p.Title, "posts"),
		Post:         p,
		RenderedHTML: h.renderer.renderMarkdown(p.Content),
	})
}

// HandleEdit handles GET /posts/{id}/edit.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	p, err := ops.Get(r.Context(), h.db, ops.GetInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "form", FormPageData{
		PageData:  h.renderer.page("Edit "+p.Title, "posts"),
		Action:    postURL(p),
		Editing:   true,
		Ref:       strconv.FormatInt(p.SequenceID, 10),
		Title:     p.Title,
		Content:   p.Content,
		Author:    p.Author,
		Tags:      joinTags(p.Tags),
		Published: p.Published,
	})
}

// HandleUpdate handles POST /posts/{id}. The edit form always submits every field.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	id := r.PathValue("id")
	form := readForm(r)
	tags := []string(post.ParseTagList(form.Tags))
	input := ops.UpdateInput{
		ID:        id,
		Title:     &form.Title,
		Content:   &form.Content,
		Author:    &form.Author,
		Tags:      &tags,
		Published: &form.Published,
	}

	p, err := ops.Update(r.Context(), h.db, h.cfg, input)
	if errors.Is(err, errors.ErrInvalidRequest) {
		form.PageData = h.renderer.page("Edit post", "posts")
		form.Action = "/posts/" + url.PathEscape(id)
		form.Editing = true
		form.Ref = id
		form.Error = errors.As(err).Message
		h.renderer.renderPageStatus(w, http.StatusBadRequest, "form", form)
		return
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(p), http.StatusSeeOther)
}

// HandleDelete handles POST /posts/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// HandleNotFound answers every path no other route matched.
func (h *Handlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderError(w, r, &errors.BlogError{
		Code:    errors.ErrNotFound,
		Status:  http.StatusNotFound,
		Message: "page not found: " + r.URL.Path,
	})
}

// readForm collects the post form fields. An unchecked published box is absent.
func readForm(r *http.Request) FormPageData {
	return FormPageData{
		Title:     r.PostFormValue("title"),
		Content:   r.PostFormValue("content"),
		Author:    r.PostFormValue("author"),
		Tags:      r.PostFormValue("tags"),
		Published: r.PostForm.Has("published"),
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// postURL links by sequence id, the human-facing reference.
func postURL(p *post.Post) string {
	return "/posts/" + strconv.FormatInt(p.SequenceID, 10)
}

func listURL(query, tag string, page int) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if tag != "" {
		v.Set("tag", tag)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/posts"
	}
	return "/posts?" + v.Encode()
}

func tagURL(tag string) string {
	return listURL("", tag, 1)
}
