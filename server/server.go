// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/vecingest/ai"
	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/media"
)

// Embedder produces one embedding per input. *workerpool.Pool satisfies it.
type Embedder interface {
	Invoke(ctx context.Context, in ai.Input) ([]float32, error)
}

// Server is the HTTP front of an embedding worker pool.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	embedder   Embedder
	fetcher    *media.Fetcher
	logger     *slog.Logger
	addr       string
	apiKey     string
	maxPixels  int
	fps        float64
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires requests to carry "Authorization: Key <key>".
// An empty key disables the check.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithDefaults overrides the processing hints used when a request omits them.
// Defaults are core.DefaultMaxPixels and core.DefaultFPS.
func WithDefaults(maxPixels int, fps float64) Option {
	return func(s *Server) {
		if maxPixels > 0 {
			s.maxPixels = maxPixels
		}
		if fps > 0 {
			s.fps = fps
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, embedder Embedder, fetcher *media.Fetcher, opts ...Option) (*Server, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	s := &Server{
		embedder:  embedder,
		fetcher:   fetcher,
		logger:    slog.Default(),
		addr:      addr,
		maxPixels: core.DefaultMaxPixels,
		fps:       core.DefaultFPS,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(Logging(s.logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(RequireKey(s.apiKey))

	router.Post("/embed", s.handleEmbed)
	router.Post("/", s.handleEmbed)

	s.router = router
	return s, nil
}

// Router returns the chi router serving the endpoints.
func (s *Server) Router() chi.Router {
	return s.router
}

// Warmup runs one text embedding through the pool so the first real
// request does not pay for lazy initialization.
func (s *Server) Warmup(ctx context.Context) error {
	start := time.Now()
	vec, err := s.embedder.Invoke(ctx, ai.Input{Text: ai.WarmupText})
	if err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	s.logger.Info("warmup complete", "dimension", len(vec), "duration", time.Since(start))
	return nil
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.addr
}
