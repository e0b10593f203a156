package server

import (
	"net/http"
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/webrecon/webrecon/internal/observability"
	"github.com/webrecon/webrecon/internal/server/handlers"
	servermw "github.com/webrecon/webrecon/internal/server/middleware"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Standard health endpoints, open to probes without credentials
	if hm := s.handlers.Health; hm != nil {
		s.router.Get("/health", hm.HealthHandler)
		s.router.Get("/health/live", hm.LivenessHandler)
		s.router.Get("/health/ready", hm.ReadinessHandler)
		s.router.Get("/health/startup", hm.StartupHandler)
	} else {
		s.router.Get("/health", handlers.HealthHandler)
		s.router.Get("/health/live", handlers.LivenessHandler)
		s.router.Get("/health/ready", handlers.ReadinessHandler)
		s.router.Get("/health/startup", handlers.StartupHandler)
	}

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	// API routes behind key auth
	s.router.Route("/api", func(r chi.Router) {
		r.Use(servermw.APIKeyAuth(s.primaryKey, s.secondaryKey))

		if s.handlers.Search != nil {
			r.Method(http.MethodPost, "/search", s.handlers.Search)
		}
		if s.handlers.Scrape != nil {
			r.Method(http.MethodPost, "/scrape", s.handlers.Scrape)
		}
		if s.handlers.Quota != nil {
			r.Method(http.MethodGet, "/quota", s.handlers.Quota)
		}
	})

	// Admin signal endpoint (optional, requires WEBRECON_ADMIN_TOKEN)
	s.registerAdminEndpoint()
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	adminToken := os.Getenv("WEBRECON_ADMIN_TOKEN")
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no WEBRECON_ADMIN_TOKEN set)")
		}
		return
	}

	// HTTP signal handler with bearer token auth and its own rate limiting
	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,  // 10 requests per minute
		RateBurst: 5,   // burst size
		Manager:   nil, // use default global manager
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
