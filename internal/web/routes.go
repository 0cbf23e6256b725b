package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/biomatch/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	matchHandler := handlers.NewMatchHandler(s.service, s.logger)
	enrollmentsHandler := handlers.NewEnrollmentsHandler(s.service, s.logger)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	if s.metrics != nil {
		s.router.Method("GET", "/metrics", s.metrics)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/match", matchHandler.Match)

		r.Route("/enrollments", func(r chi.Router) {
			r.Get("/", enrollmentsHandler.List)
			r.Post("/", enrollmentsHandler.Create)
			r.Delete("/", enrollmentsHandler.Clear)
			r.Get("/{id}", enrollmentsHandler.Get)
			r.Delete("/{id}", enrollmentsHandler.Delete)
		})
	})
}
