package accounts

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuth)
		r.Get("/{id}", h.GetRedacted)
		r.Patch("/{id}", h.Update)
		r.Post("/{id}/deactivate", h.Deactivate)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuth, h.guard.RequireSuperAdmin)
		r.Get("/", h.List)
		r.Get("/record", h.GetRecord)
	})
}
