package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/reclaim/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	uploadHandler := handlers.NewUploadHandler(s.config, s.services.Workspaces, s.services.Extractor, s.services.Matcher, s.logger)
	reportHandler := handlers.NewReportHandler(s.services.Reports, s.logger)
	verifyHandler := handlers.NewVerifyHandler(s.logger)

	api := func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Post("/upload", uploadHandler.Upload)
		r.Post("/report", reportHandler.Report)
		r.Post("/verify-match", verifyHandler.Verify)
	}

	// The frontend calls the bare paths, /api/v1 mirrors them for versioned clients.
	api(s.router)
	s.router.Route("/api/v1", api)
}
