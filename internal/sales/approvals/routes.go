package approvals

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/approvals", h.List)
	r.Post("/approvals", h.Create)
	r.Post("/approvals/{id}/decide", h.Decide)
	r.Delete("/approvals/{id}", h.Delete)
}
