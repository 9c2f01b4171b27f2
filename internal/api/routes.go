package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/users/register", s.handleRegisterPlayer)

		r.Route("/games", func(r chi.Router) {
			r.Post("/", s.handleCreateGame)
			r.Get("/active", s.handleActiveGames)
			r.Get("/recent", s.handleRecentGames)
			r.Get("/{id}", s.handleGameDetail)
			r.Patch("/{id}/join", s.handleJoinGame)
			r.Patch("/{id}/move", s.handleMakeMove)
			r.Patch("/{id}/resign", s.handleResign)
			r.Patch("/{id}/draw", s.handleDraw)
		})
	})

	return r
}
