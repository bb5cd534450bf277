// Package server wires the HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reachloop/reachbot/internal/agent/orchestrator"
	"github.com/reachloop/reachbot/internal/handler/actions"
	"github.com/reachloop/reachbot/internal/logging"
	"github.com/reachloop/reachbot/internal/selectors"
)

// Server is the HTTP front end for action invocations.
type Server struct {
	http *http.Server
	log  logging.Logger
}

// New builds the router and server for the given listen address.
func New(listen string, orch *orchestrator.Orchestrator, store *selectors.Store) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodPost, "/api/v1/actions", actions.NewHandler(orch))

	// Diagnostics: current selector knowledge per feature, including what the
	// agent has learned this process lifetime.
	r.Get("/api/v1/selectors", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(store.Snapshot())
	})

	return &Server{
		http: &http.Server{
			Addr:    listen,
			Handler: r,
			// Agent runs span many model and browser round trips.
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},
		log: logging.Component("server"),
	}
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Infof("listening on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
