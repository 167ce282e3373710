package authz

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/shared"
)

// SessionRoleKey is the session value carrying the actor role.
const SessionRoleKey = "role"

// Middleware resolves the request actor from the session.
type Middleware struct {
	Logger *slog.Logger
}

// RequireActor rejects unauthenticated requests and stores the actor in context.
func (m Middleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.currentActor(r)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

func (m Middleware) currentActor(r *http.Request) (Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return Actor{}, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return Actor{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse user id", slog.String("value", raw))
		}
		return Actor{}, false
	}
	return Actor{ID: id, Role: sess.Get(SessionRoleKey)}, true
}
