// Package server provides the HTTP API for agelab.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/clean"
	"github.com/kidtalk/agelab/internal/config"
	"github.com/kidtalk/agelab/internal/corpus"
	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/maxent"
)

// Server is the HTTP server for the agelab API. The extractor must be
// built with the loaded model's stored feature options so prediction
// requests are featurized exactly the way the model was trained.
type Server struct {
	corpus    *corpus.Corpus
	model     *maxent.Model
	extractor *features.Extractor
	cleaner   *clean.Cleaner
	smoothing float64
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	c *corpus.Corpus,
	model *maxent.Model,
	extractor *features.Extractor,
	cleaner *clean.Cleaner,
	smoothing float64,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		corpus:    c,
		model:     model,
		extractor: extractor,
		cleaner:   cleaner,
		smoothing: smoothing,
		config:    cfg,
		logger:    logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/predict", s.handlePredict)
	r.Get("/api/v1/model", s.handleModel)
	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("model", s.model.ID))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
