package serviceorders

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/service-orders", h.List)
	r.Post("/service-orders", h.Create)
	r.Get("/service-orders/eligible", h.ListEligible)
	r.Get("/service-orders/{id}", h.Get)
	r.Post("/service-orders/{id}/transition", h.Transition)
	r.Post("/service-orders/{id}/progress", h.UpdateProgress)
}
