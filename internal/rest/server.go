// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package rest exposes the passkey registration ceremony over HTTP: a
// begin endpoint that issues creation options and a finish endpoint that
// verifies the attestation, plus health and metrics surfaces.
package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mensahe/passkey/internal/config"
	"github.com/mensahe/passkey/pkg/health"
	"github.com/mensahe/passkey/pkg/passkey"
	"github.com/mensahe/passkey/pkg/ratelimit"
)

// ServerParams contains dependencies for creating the HTTP server.
type ServerParams struct {
	Config  *config.Config
	Service *passkey.Service
	Logger  *slog.Logger

	// Checker supplies readiness checks. Optional; a checker with no
	// checks is used when nil.
	Checker *health.Checker

	// Limiter rate limits the ceremony endpoints. Optional.
	Limiter *ratelimit.Limiter
}

// Server is the HTTP front end of the registration service.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	handler *Handler
	checker *health.Checker
	limiter *ratelimit.Limiter
	httpSrv *http.Server
}

// NewServer creates the HTTP server. It does not start listening; call
// Run.
func NewServer(params ServerParams) (*Server, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	checker := params.Checker
	if checker == nil {
		checker = health.NewChecker()
	}

	s := &Server{
		config:  params.Config,
		logger:  params.Logger,
		handler: NewHandler(params.Service, params.Logger),
		checker: checker,
		limiter: params.Limiter,
	}

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", params.Config.Server.Host, params.Config.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// Router builds the route tree. Exposed separately so tests can exercise
// the full middleware chain without a listener.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(CORSMiddleware(s.config.CORS))

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})

	r.Get("/health/live", s.checker.LivenessHandler())
	r.Get("/health/ready", s.checker.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/passkey/registration", func(r chi.Router) {
		r.Use(SessionMiddleware(s.config.Session))
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/begin", s.handler.BeginRegistration)
		r.Post("/finish", s.handler.FinishRegistration)
	})

	return r
}

// Run starts the listener and blocks until the context is canceled or the
// listener fails. On cancellation the server drains in-flight requests
// before returning.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening",
			"addr", s.httpSrv.Addr,
			"rp_id", s.config.App.Domain,
			"rp_name", s.config.App.Name)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
