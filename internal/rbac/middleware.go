package rbac

import (
	"net/http"

	"log/slog"

	"github.com/meridian-esg/meridian-esg/internal/platform/httpx"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// DenialObserver records rejected capability checks.
type DenialObserver interface {
	ObserveDenial(module, action string)
}

// Middleware wires capability checks into HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
	Denials  DenialObserver
}

// Require rejects the request unless the principal's role permits the action
// within the module. Requests without a principal are always rejected.
func (m Middleware) Require(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no identity for request")
				return
			}
			if !m.Resolver.Can(Role(principal.Role), module, action) {
				if m.Logger != nil {
					m.Logger.Warn("capability denied",
						slog.String("role", principal.Role),
						slog.String("module", string(module)),
						slog.String("action", string(action)))
				}
				if m.Denials != nil {
					m.Denials.ObserveDenial(string(module), string(action))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "role does not permit this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
