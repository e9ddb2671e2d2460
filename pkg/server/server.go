// Package server exposes the assessment engine over HTTP: run
// assessments, validate weight configurations, browse the catalog, and
// read stored history. The API is a thin surface over the same packages
// the CLI uses; no scoring logic lives here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gradekit/repograde/pkg/store"
)

// Config holds server configuration.
type Config struct {
	Addr string
	// Jobs caps scoring concurrency per assessment request.
	Jobs int
}

// Server is the assessment API server. The history store is optional;
// when nil, history endpoints answer 503.
type Server struct {
	cfg    Config
	store  *store.Store
	logger *slog.Logger
	engine *gin.Engine
}

// New creates a configured server and registers its routes.
func New(cfg Config, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		store:  st,
		logger: logger,
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())

	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api/v1")
	api.GET("/catalog", s.handleCatalog)
	api.POST("/assessments", s.handleAssess)
	api.POST("/weights/validate", s.handleValidateWeights)
	api.GET("/assessments", s.handleListAssessments)
	api.GET("/assessments/:id", s.handleGetAssessment)

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving requests and blocks until the context is
// cancelled or the listener fails. Shutdown drains in-flight requests
// for up to 10 seconds.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("assessment API listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down assessment API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
