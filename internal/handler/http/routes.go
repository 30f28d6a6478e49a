package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Init assembles the router: open auth routes, then a token-guarded group
// carrying the sync API and the feed endpoint.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withLogging)

	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.withAuth)
		r.Post("/api/groups/", h.upload)
		r.Post("/api/groups/download", h.download)
		r.Get("/api/settings/", h.getSettings)
		r.Put("/api/settings/", h.putSettings)
		r.Get("/api/feed", h.feed)
	})

	return router
}
