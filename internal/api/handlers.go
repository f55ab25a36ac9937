package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/eblog/internal/ops"
)

// ListPosts handles GET /api/posts.
func (s *Server) ListPosts(w http.ResponseWriter, r *http.Request) {
	out, err := ops.List(r.Context(), s.db, s.cfg, listInput(r.URL.Query()))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPost handles GET /api/posts/{id}.
func (s *Server) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := ops.Get(r.Context(), s.db, ops.GetInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	body, err := decodePostBody(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	p, err := ops.Create(r.Context(), s.db, s.cfg, body.createInput())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/posts/"+p.InternalID)
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePost handles PUT /api/posts/{id}.
func (s *Server) UpdatePost(w http.ResponseWriter, r *http.Request) {
	body, err := decodePostBody(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	p, err := ops.Update(r.Context(), s.db, s.cfg, body.updateInput(chi.URLParam(r, "id")))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePost handles DELETE /api/posts/{id}.
func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Delete(r.Context(), s.db, ops.DeleteInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
