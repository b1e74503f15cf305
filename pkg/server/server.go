// Copyright 2025 The Doclens Authors
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

// Package server exposes the compliance pipeline over HTTP: document
// upload and analysis, credential pool statistics, health, and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doclens/doclens/pkg/compare"
	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/credential"
	"github.com/doclens/doclens/pkg/executor"
	"github.com/doclens/doclens/pkg/scrape"
)

// Server is the HTTP front end for document compliance analysis.
type Server struct {
	cfg        config.ServerConfig
	pool       *credential.Pool
	analyzer   *compare.Analyzer
	scraper    *scrape.Scraper
	alerts     executor.AlertSink
	registry   *prometheus.Registry
	httpServer *http.Server
}

// New creates a server. alerts and registry may be nil.
func New(cfg config.ServerConfig, pool *credential.Pool, analyzer *compare.Analyzer, scraper *scrape.Scraper, alerts executor.AlertSink, registry *prometheus.Registry) *Server {
	return &Server{
		cfg:      cfg,
		pool:     pool,
		analyzer: analyzer,
		scraper:  scraper,
		alerts:   alerts,
		registry: registry,
	}
}

// Start runs the HTTP server until it fails or Stop is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Address(),
		Handler: s.setupRouting(),
	}

	slog.Info("HTTP server starting", "address", s.cfg.Address())

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	slog.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}

func (s *Server) setupRouting() http.Handler {
	r := chi.NewRouter()

	r.Use(loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/stats", s.handleStats)
	r.Post("/api/documents", s.handleDocument)

	if s.registry != nil {
		r.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
