// Package server wires HTTP handlers into a router for the Perch
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// SetupRoutes configures and returns the application's HTTP handler with
// all routes registered and the CORS policy applied. It sets up handlers
// for the chat and readiness WebSocket endpoints, the view counter, health
// check, metrics, and the test page.
func (s *Server) SetupRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/views", s.ViewsHandler).Methods(http.MethodGet)
	r.HandleFunc("/reset", s.ResetHandler).Methods(http.MethodPost)
	r.HandleFunc("/ws/room/{room:[0-9]+}/user/{user}", s.ChatHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws/ping", s.ReadyHandler).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/test", s.TestPageHandler).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}
