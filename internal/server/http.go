// Package server assembles the HTTP router and owns the server lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	healthhandler "eventfair/backend/internal/health/handler"
	listinghandler "eventfair/backend/internal/listing/handler"
	sessionhandler "eventfair/backend/internal/session/handler"
)

// Deps holds the handlers mounted on the router.
type Deps struct {
	Session *sessionhandler.Handler
	Listing *listinghandler.Handler
	Health  *healthhandler.Handler
}

// NewRouter builds the full API router. Listing routes run behind the session
// middleware; auth and health routes are public.
func NewRouter(deps Deps, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))

	r.Get("/healthz", deps.Health.Healthz)
	r.Mount("/api/auth", deps.Session.Routes())
	r.Mount("/api/listings", deps.Session.Require(deps.Listing.Routes()))

	return r
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// New returns a Server listening on addr with the given handler.
func New(addr string, handler http.Handler, log zerolog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
