package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/metrics"
)

// Server serves the JSON API over the post façade.
type Server struct {
	db     *sql.DB
	cfg    *config.Config
	logger *zap.Logger
}

// NewServer creates an API server.
func NewServer(database *sql.DB, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{db: database, cfg: cfg, logger: logger}
}

// NewRouter assembles the HTTP surface: middleware, /api routes, /healthz and
// /metrics. ui, when non-nil, serves every other path.
func NewRouter(database *sql.DB, cfg *config.Config, logger *zap.Logger, ui http.Handler) http.Handler {
	s := NewServer(database, cfg, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", s.Routes)

	if ui != nil {
		r.Mount("/", ui)
	} else {
		r.NotFound(s.NotFound)
		r.MethodNotAllowed(s.MethodNotAllowed)
	}
	return r
}

// Routes registers the post endpoints on an /api subrouter.
func (s *Server) Routes(r chi.Router) {
	r.Use(corsMiddleware)
	r.NotFound(s.NotFound)
	r.MethodNotAllowed(s.MethodNotAllowed)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", s.ListPosts)
		r.Post("/", s.CreatePost)
		r.Get("/{id}", s.GetPost)
		r.Put("/{id}", s.UpdatePost)
		r.Delete("/{id}", s.DeletePost)
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), s.db); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// NotFound answers unknown routes with a JSON 404.
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, errors.ErrNotFound, "route not found: "+r.URL.Path)
}

// MethodNotAllowed answers known paths hit with an unsupported method.
func (s *Server) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidRequest, "method not allowed: "+r.Method)
}

// errorBody is the envelope for every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errors.ErrorCode, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    string(code),
		Message: message,
		Status:  status,
	}})
}

// handleError maps a façade error onto the error envelope. Server-side
// failures are logged with their cause and answered with a generic message.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	bErr := errors.As(err)
	log := s.requestLogger(r)

	switch {
	case bErr.Status >= http.StatusInternalServerError:
		log.Error("request failed", zap.String("code", string(bErr.Code)), zap.Error(err))
		writeError(w, bErr.Status, bErr.Code, safeMessage(bErr.Code))
	default:
		log.Debug("request rejected", zap.String("code", string(bErr.Code)), zap.String("message", bErr.Message))
		writeError(w, bErr.Status, bErr.Code, bErr.Message)
	}
}

// safeMessage is the client-facing text for server-side failures.
func safeMessage(code errors.ErrorCode) string {
	if code == errors.ErrStoreUnavailable {
		return "store unavailable"
	}
	return "internal error"
}
