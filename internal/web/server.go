package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/reclaim/internal/config"
	"github.com/kozaktomas/reclaim/internal/facematch"
	"github.com/kozaktomas/reclaim/internal/report"
	"github.com/kozaktomas/reclaim/internal/web/handlers"
	"github.com/kozaktomas/reclaim/internal/web/middleware"
	"github.com/kozaktomas/reclaim/internal/workspace"
	"github.com/sirupsen/logrus"
)

// requestSlack is added on top of the pipeline deadline so handlers can still write partial results.
const requestSlack = 30 * time.Second

// Services are the pipeline components the HTTP handlers call into.
type Services struct {
	Extractor  facematch.Extractor
	Matcher    handlers.Matcher
	Reports    *report.Builder
	Workspaces *workspace.Manager
	Logger     logrus.FieldLogger
}

// Server represents the web server
type Server struct {
	config     *config.Config
	services   Services
	router     *chi.Mux
	httpServer *http.Server
	logger     logrus.FieldLogger
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, svc Services) *Server {
	r := chi.NewRouter()

	logger := svc.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		config:   cfg,
		services: svc,
		router:   r,
		logger:   logger,
	}

	requestTimeout := cfg.Match.PipelineTimeout + requestSlack

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
