// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/counters/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CounterDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	countersHandler *CountersHandler
}

// NewServer creates a new API server with all handlers. A nil log falls back
// to the global logger.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Get()
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		countersHandler: NewCountersHandler(deps, log.Named("api")),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", route(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", route(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /counters", route(s.countersHandler.HandleList, "counters_list"))
	mux.HandleFunc("POST /counters/{name}", route(s.countersHandler.HandleCreate, "counters_create"))
	mux.HandleFunc("GET /counters/{name}", route(s.countersHandler.HandleRead, "counters_read"))
	mux.HandleFunc("PUT /counters/{name}", route(s.countersHandler.HandleUpdate, "counters_update"))
	mux.HandleFunc("DELETE /counters/{name}", route(s.countersHandler.HandleDelete, "counters_delete"))
}

// route applies the standard middleware chain, outermost first.
func route(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(h, endpoint))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorView{Error: msg})
}
