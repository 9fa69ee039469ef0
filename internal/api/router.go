package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spectraops/spectraops/internal/api/auth"
	"github.com/spectraops/spectraops/internal/api/events"
	"github.com/spectraops/spectraops/internal/api/health"
	"github.com/spectraops/spectraops/internal/api/middleware"
	"github.com/spectraops/spectraops/internal/api/projects"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware. The rate limiter sits here rather than on the
	// /api/* groups so every response, /health included, carries the
	// X-RateLimit-* headers.
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.CORS(s.config.CORSOrigins))
	r.Use(middleware.BodyLimit(s.config.MaxBodyBytes))
	r.Use(middleware.RateLimitByIP(s.limiter, s.config.TrustProxy))

	eventsHandler := events.NewHandler(s.ingest)
	authHandler := auth.NewHandler(s.storage.Users(), s.storage.Sessions(), s.config.SessionTTL)
	projectsHandler := projects.NewHandler(s.storage.Projects())
	healthHandler := health.NewHandler(s.storage.DB())

	dualAuth := middleware.DualAuth(s.storage.Projects(), s.storage.Sessions())
	sessionAuth := middleware.RequireSession(s.storage.Sessions())

	// Error event routes: SDK ingestion and dashboard reads
	r.Route("/api/errors", func(r chi.Router) {
		r.Use(dualAuth)

		r.Post("/", eventsHandler.Capture)
		r.Post("/batch", eventsHandler.CaptureBatch)
		r.Get("/", eventsHandler.List)
	})

	// Dashboard auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(sessionAuth)
			r.Get("/me", authHandler.Me)
		})
	})

	// Project management routes (session only)
	r.Route("/api/projects", func(r chi.Router) {
		r.Use(sessionAuth)

		r.Get("/", projectsHandler.List)
		r.Post("/", projectsHandler.Create)
		r.Delete("/{id}", projectsHandler.Delete)
		r.Post("/{id}/rotate-key", projectsHandler.RotateKey)
	})

	// Health check (public)
	r.Get("/health", healthHandler.Health)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	return r
}
