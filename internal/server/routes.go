// Package server wires the HTTP routes for the relay.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter configures the chi router with all application routes and the
// standard middleware stack.
func NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", RootHandler)
	r.Get("/health", HealthHandler)
	r.Get("/ws", WebSocketHandler)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
