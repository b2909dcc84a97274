package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/campusops/coursemap/internal/config"
	"github.com/campusops/coursemap/internal/pipeline"
)

// Server is the HTTP surface for mapping jobs, course viewers, and
// search sessions.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	sessions     *SessionStore
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, sessions *SessionStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		sessions:     sessions,
		log:          log,
		cfg:          cfg,
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
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/maps/{jobID}", s.handleViewer)
	r.Get("/maps/{jobID}/doc", s.handleDoc)

	// API endpoints; bearer auth only when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/maps", s.handleCreateMap)
		r.Get("/api/maps/{jobID}/status", s.handleMapStatus)

		r.Post("/api/maps/{jobID}/sessions", s.handleCreateSession)
		r.Post("/api/sessions/{sessionID}/query", s.handleSessionQuery)
		r.Post("/api/sessions/{sessionID}/toggle", s.handleSessionToggle)
		r.Post("/api/sessions/{sessionID}/expand", s.handleSessionExpand)
		r.Post("/api/sessions/{sessionID}/collapse", s.handleSessionCollapse)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
