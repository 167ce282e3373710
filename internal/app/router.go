package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vendaflow-erp/vendaflow/internal/auth"
	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/docgen"
	"github.com/vendaflow-erp/vendaflow/internal/observability"
	"github.com/vendaflow-erp/vendaflow/internal/sales/approvals"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
	"github.com/vendaflow-erp/vendaflow/internal/sales/reminders"
	"github.com/vendaflow-erp/vendaflow/internal/sales/serviceorders"
	"github.com/vendaflow-erp/vendaflow/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics
	Authz          authz.Middleware

	AuthHandler          *auth.Handler
	ProposalsHandler     *proposals.Handler
	ApprovalsHandler     *approvals.Handler
	ServiceOrdersHandler *serviceorders.Handler
	RemindersHandler     *reminders.Handler
	DocgenHandler        *docgen.Handler
}

// NewRouter constructs the chi.Router with vendaflow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	if params.Config != nil {
		r.Use(chimw.Timeout(params.Config.AppRequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	params.AuthHandler.MountRoutes(r)

	r.Route("/api", func(r chi.Router) {
		r.Use(params.Authz.RequireActor)

		params.ProposalsHandler.MountRoutes(r)
		params.ApprovalsHandler.MountRoutes(r)
		params.ServiceOrdersHandler.MountRoutes(r)
		params.RemindersHandler.MountRoutes(r)
		params.DocgenHandler.MountRoutes(r)
	})

	return r
}
