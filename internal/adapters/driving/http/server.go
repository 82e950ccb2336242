// Package http is a thin, optional HTTP driving adapter over the
// client façade (C9). It is not part of the core: embedding
// applications can use driving.Client directly and skip this package
// entirely.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ragforge/ragcore/docs"
	"github.com/ragforge/ragcore/internal/core/ports/driving"
)

// Server exposes a driving.Client over HTTP.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	client driving.Client
}

// Config holds server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Host: "0.0.0.0", Port: 8080, Version: "dev"}
}

// NewServer creates a new HTTP server over client.
func NewServer(cfg Config, client driving.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:  http.NewServeMux(),
		version: cfg.Version,
		logger:  logger,
		client:  client,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /stats", s.handleStats)
	s.router.HandleFunc("GET /swagger.json", s.handleSwagger)

	s.router.HandleFunc("POST /api/v1/documents", s.handleAddDocument)
	s.router.HandleFunc("POST /api/v1/documents/directory", s.handleAddDirectory)
	s.router.HandleFunc("POST /api/v1/documents/directory/resume", s.handleResumeDirectory)
	s.router.HandleFunc("GET /api/v1/documents/{id}", s.handleGetDocument)
	s.router.HandleFunc("GET /api/v1/documents/{id}/status", s.handleDocumentStatus)
	s.router.HandleFunc("DELETE /api/v1/documents/{id}", s.handleDeleteDocument)
	s.router.HandleFunc("GET /api/v1/documents", s.handleListDocuments)

	s.router.HandleFunc("POST /api/v1/search", s.handleSearch)
	s.router.HandleFunc("POST /api/v1/search/hybrid", s.handleHybridSearch)
	s.router.HandleFunc("POST /api/v1/search/context", s.handleGetContext)
	s.router.HandleFunc("POST /api/v1/search/enhance-prompt", s.handleEnhancePrompt)
}

// Start starts the HTTP server with graceful shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	<-stop
	s.logger.Info("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
