package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pitchforge/internal/config"
	"pitchforge/internal/llm"
	"pitchforge/internal/pipeline"
	"pitchforge/internal/store"
)

// Server is the HTTP API for the pitch generation daemon.
type Server struct {
	router   chi.Router
	manager  *pipeline.Manager
	packages *store.Store
	stats    *llm.CallStats
	log      *slog.Logger
	cfg      config.Config
	version  string
}

// NewServer creates and configures the HTTP server. The stats recorder
// and package store may be nil; the affected endpoints degrade.
func NewServer(manager *pipeline.Manager, packages *store.Store, stats *llm.CallStats, log *slog.Logger, cfg config.Config, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		manager:  manager,
		packages: packages,
		stats:    stats,
		log:      log,
		cfg:      cfg,
		version:  version,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger(s.log))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed for this route")
	})

	// Public endpoints.
	r.Get("/healthz", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.AuthToken, s.log))

		r.Post("/v1/scripts", s.handleSubmitScript)
		r.Get("/v1/scripts/{jobID}", s.handleScriptStatus)
		r.Get("/v1/scripts/{jobID}/script", s.handleScriptDocument)
		r.Get("/v1/scripts/{jobID}/package", s.handleScriptPackage)

		r.Get("/v1/packages", s.handleListPackages)
		r.Get("/v1/packages/{packageID}", s.handleGetPackage)
		r.Delete("/v1/packages/{packageID}", s.handleDeletePackage)

		r.Get("/v1/recommendations", s.handleRecommendations)
		r.Get("/v1/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
