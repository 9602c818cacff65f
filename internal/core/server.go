package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"socialsync/internal/config"
)

// Server encapsulates the HTTP surface of the sync engine: the router, the
// global middleware chain, and the health probes. Handlers are mounted by
// the application entry point, which keeps core free of handler imports.
type Server struct {
	Config *config.Config
	Logger *slog.Logger

	// HealthProbes are the subsystem checks executed by GET /healthz.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer validates dependencies and prepares the router. Routes must be
// mounted afterwards via MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// MountRoutes registers the global middleware chain and the route tree.
// triggerHandler handles POST /v1/sync/trigger behind the shared-secret
// auth middleware.
//
// Middleware ordering:
//  1. Recoverer     - outermost so panics anywhere in the chain are caught.
//  2. RequestID     - correlation ID for logs and outbound calls.
//  3. RequestLogger - structured request logging with the ID in place.
//
// TriggerAuth is scoped to the trigger route only; the health check stays
// public for load balancers.
func (s *Server) MountRoutes(triggerHandler http.HandlerFunc) {
	s.router.Use(Recoverer(s.Logger))
	s.router.Use(RequestID)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Route("/v1", func(r chi.Router) {
		r.With(TriggerAuth(s.Config.Sync.TriggerSecret)).
			Post("/sync/trigger", triggerHandler)
	})

	s.router.Get("/healthz", s.HandleHealth)
}

// Handler returns the http.Handler for use by http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the underlying chi.Mux for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server-held resources. The HTTP listener itself is
// owned and drained by the entry point.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
