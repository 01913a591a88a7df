package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter assembles the read-only operator surface: device listing,
// per-device state, a manual refresh trigger, and the WebSocket live tail.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1/devices", func(r chi.Router) {
		r.Get("/", s.handleListDevices)
		r.Get("/{host}", s.handleGetDevice)
		r.Post("/{host}/refresh", s.handleRefreshDevice)
	})

	return r
}
