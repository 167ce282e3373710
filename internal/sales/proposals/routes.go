package proposals

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/proposals", h.List)
	r.Post("/proposals", h.Create)
	r.Get("/proposals/{id}", h.Get)
	r.Put("/proposals/{id}", h.Update)
}
