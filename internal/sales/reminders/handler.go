package reminders

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	group   singleflight.Group
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// List recomputes the projection; concurrent requests collapse into a single
// computation since the result only depends on the current day.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	key := now.Format("2006-01-02")

	resultChan := h.group.DoChan(key, func() (interface{}, error) {
		return h.service.Upcoming(context.WithoutCancel(r.Context()), now)
	})

	var result []Reminder
	select {
	case <-r.Context().Done():
		httpx.RespondError(w, r.Context().Err())
		return
	case res := <-resultChan:
		if res.Err != nil {
			h.logger.Error("compute reminders", slog.Any("error", res.Err))
			httpx.RespondError(w, res.Err)
			return
		}
		result, _ = res.Val.([]Reminder)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"reminders": result})
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reminders", h.List)
}
