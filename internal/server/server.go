// Package server provides the HTTP API for the support assistant.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fintechco/supportbot/internal/config"
	"github.com/fintechco/supportbot/internal/knowledge"
	"github.com/fintechco/supportbot/internal/session"
	"github.com/fintechco/supportbot/internal/tools"
)

// Server is the HTTP server for the support assistant API.
type Server struct {
	kb       *knowledge.Manager
	sessions *session.Service
	registry *tools.Registry
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	kb *knowledge.Manager,
	sessions *session.Service,
	registry *tools.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		kb:       kb,
		sessions: sessions,
		registry: registry,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.allowOrigins)

	r.Get("/health", s.handleHealth)
	r.Post("/api/chatkit/session", s.handleCreateSession)
	r.Post("/api/chatkit/start", s.handleStartSession)
	r.Post("/api/chatkit/refresh", s.handleRefreshSession)
	r.Post("/api/tools/test", s.handleTestTool)
	r.Get("/api/knowledge-base/stats", s.handleKnowledgeBaseStats)
	r.Post("/api/knowledge-base/search", s.handleKnowledgeBaseSearch)
	r.Post("/api/knowledge-base/documents", s.handleKnowledgeBaseAdd)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// allowOrigins sets CORS headers. In development only the configured origins
// are honored; in other environments any origin is allowed, on the assumption
// that a trusted proxy sits in front.
func (s *Server) allowOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			allowed := s.config.Environment != "development"
			for _, o := range s.config.Server.AllowedOrigins {
				if o == origin {
					allowed = true
					break
				}
			}
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
