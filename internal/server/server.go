// Package server provides the demo web page and its JSON endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/semsim/internal/client"
	"github.com/hyperjump/semsim/internal/config"
	"github.com/hyperjump/semsim/internal/controller"
	"github.com/hyperjump/semsim/internal/samples"
	"github.com/hyperjump/semsim/internal/storage"
)

// Server is the HTTP server for the similarity demo.
type Server struct {
	ctrl    *controller.Controller
	library *samples.Library
	storage storage.Storage
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. history may be nil.
func NewServer(
	ctrl *controller.Controller,
	library *samples.Library,
	history storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ctrl:    ctrl,
		library: library,
		storage: history,
		config:  cfg,
		logger:  logger,
	}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleIndex)
	r.Get("/samples/{file}", s.handleSampleXML)
	r.Route("/demo", func(r chi.Router) {
		r.Post("/samples/{name}", s.handleLoadSample)
		r.Post("/submit", s.handleSubmit)
		r.Post("/results", s.handleResults)
	})
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/visualization", s.handleVisualization)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("api", s.config.API.BaseURL))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestTimeout leaves room for a full results poll.
func (s *Server) requestTimeout() time.Duration {
	poll := s.pollOptions()
	d := s.config.API.Timeout*time.Duration(poll.MaxAttempts) + poll.Interval*time.Duration(poll.MaxAttempts)
	if d < 60*time.Second {
		return 60 * time.Second
	}
	return d
}

func (s *Server) pollOptions() client.PollOptions {
	return client.PollOptions{
		Interval:    s.config.API.PollInterval,
		MaxAttempts: s.config.API.PollAttempts,
	}
}
