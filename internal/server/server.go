// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the matching core over HTTP: health/readiness,
// recommendations, filter options, and Prometheus metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/internal/matcher"
	"github.com/pdiddy/unimatch/internal/metrics"
	"github.com/pdiddy/unimatch/internal/recommend"
	"github.com/pdiddy/unimatch/internal/ready"
	"github.com/pdiddy/unimatch/pkg/types"
)

// IndexSource is the slice of the lifecycle manager the handlers need:
// readiness is re-validated on every request rather than trusted from a
// past poll.
type IndexSource interface {
	Current() types.CacheMetadata
	CacheExists() bool
	IndexIfReady() (*index.EmbeddingIndex, bool)
}

// Handler holds the request-path collaborators.
type Handler struct {
	source   IndexSource
	reporter *ready.Reporter
	matcher  *matcher.Matcher
	composer *recommend.Composer
	metrics  *metrics.Metrics
	validate *validator.Validate
	topK     int
	log      zerolog.Logger
}

// NewHandler constructs a Handler. topK <= 0 defaults to 10.
func NewHandler(source IndexSource, m *matcher.Matcher, c *recommend.Composer, mx *metrics.Metrics, topK int, log zerolog.Logger) *Handler {
	if topK <= 0 {
		topK = 10
	}
	return &Handler{
		source:   source,
		reporter: ready.NewReporter(source),
		matcher:  m,
		composer: c,
		metrics:  mx,
		validate: validator.New(),
		topK:     topK,
		log:      log.With().Str("component", "server").Logger(),
	}
}

// Routes assembles the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.logRequests)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/recommendations", h.Recommendations)
		r.Get("/options", h.Options)
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{}))

	return r
}

// New builds an http.Server around the handler with the configured
// timeouts.
func New(cfg types.ServerConfig, h *Handler) *http.Server {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	return &http.Server{
		Addr:         addr,
		Handler:      h.Routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
