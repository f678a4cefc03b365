package rbac

import (
	"log/slog"
	"net/http"

	"github.com/wareline/wareline/internal/platform/httpx"
	"github.com/wareline/wareline/internal/shared"
)

// Middleware wires authorization checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current identity may perform action on resource.
func (m Middleware) Require(resource Resource, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			role, err := ParseRole(identity.Role)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Warn("unknown role on request",
						slog.String("role", identity.Role),
						slog.Int64("user_id", identity.UserID))
				}
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			if !Allowed(role, resource, action) {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
