// Package v1 wires the HTTP surface of the accounts service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"io"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/accountrix/internal/service/account"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	accountSvc account.Service
	ready      ReadyChecker
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// ready may be nil, in which case /readyz always reports OK.
// A nil logger discards output.
func New(svc account.Service, ready ReadyChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		accountSvc: svc,
		ready:      ready,
		rt:         r,
		log:        logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	s.rt.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/accounts", s.listAccounts)
		r.With(s.validateAccountBody).Post("/accounts", s.postAccount)
		r.Get("/accounts/{id}", s.getAccount)
		r.With(s.validateAccountBody).Put("/accounts/{id}", s.putAccount)
		r.Patch("/accounts/{id}", s.patchAccount)
		r.Delete("/accounts/{id}", s.deleteAccount)
	})
	// Probes and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
