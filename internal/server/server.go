// Package server provides the HTTP API for IntelliQuery.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/intelliquery/intelliquery/internal/config"
	"github.com/intelliquery/intelliquery/internal/engine"
)

// Server is the HTTP server for the IntelliQuery API.
type Server struct {
	engine *engine.Engine
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(eng *engine.Engine, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		engine: eng,
		config: cfg,
		logger: logger,
	}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Post("/upload_document", s.handleUpload)
	r.Post("/query", s.handleQuery)
	r.Delete("/sessions/{session_id}", s.handleDeleteSession)
	r.With(s.bearerAuth).Post("/hackrx/run", s.handleBulkRun)
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
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
