package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/webrecon/webrecon/internal/errors"
	"github.com/webrecon/webrecon/internal/observability"
	"github.com/webrecon/webrecon/internal/server/handlers"
	servermw "github.com/webrecon/webrecon/internal/server/middleware"
)

// Handlers carries the wired API handlers into the router. Nil entries leave
// their routes unregistered, which keeps tests free to exercise a subset.
type Handlers struct {
	Search http.Handler
	Scrape http.Handler
	Quota  http.Handler
	Health *handlers.HealthManager
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	host     string
	port     int
	handlers Handlers

	primaryKey   string
	secondaryKey string
}

// New creates a new HTTP server instance. API routes sit behind X-API-Key
// auth when keys are configured; health, version, and metrics stay open.
func New(host string, port int, apiHandlers Handlers, primaryKey, secondaryKey string) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// Custom middleware in correct order (RequestID → Metrics → Recovery)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	// Standardized error responses using centralized HandleError
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		err := apperrors.NewNotFoundError("The requested resource was not found")
		HandleError(w, req, err)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		err := apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource")
		HandleError(w, req, err)
	})

	s := &Server{
		router:       r,
		host:         host,
		port:         port,
		handlers:     apiHandlers,
		primaryKey:   primaryKey,
		secondaryKey: secondaryKey,
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.host),
		zap.Int("port", s.port),
		zap.String("addr", addr),
		zap.Bool("auth_enabled", s.primaryKey != "" || s.secondaryKey != ""))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.port
}
