package docgen

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	proposals *proposals.Service
}

func NewHandler(logger *slog.Logger, service *Service, proposalService *proposals.Service) *Handler {
	return &Handler{logger: logger, service: service, proposals: proposalService}
}

func (h *Handler) RenderPremium(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid proposal id")
		return
	}

	proposal, err := h.proposals.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	doc, err := h.service.RenderPremium(r.Context(), proposal)
	if err != nil {
		h.logger.Error("render premium document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) StartSignature(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid proposal id")
		return
	}

	proposal, err := h.proposals.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	envelope, err := h.service.StartSignature(r.Context(), proposal, actor)
	if err != nil {
		h.logger.Error("start signature", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, envelope)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/proposals/{id}/premium-document", h.RenderPremium)
	r.Post("/proposals/{id}/signature", h.StartSignature)
}
