package authz

import (
	"log/slog"
	"net/http"

	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// Guard wires authorization checks in front of HTTP handlers. Each guard
// rejects the request before it reaches business logic: 401 when no
// identity is present, 403 when the identity lacks the requirement.
type Guard struct {
	Engine Engine
	Logger *slog.Logger
}

// RequireAuthenticated ensures a subject identity is present on the request.
func (g Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SubjectFromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission gates on a single capability.
func (g Guard) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return g.require(Permission(resource, action))
}

// RequireAnyPermission gates on holding at least one of the capabilities.
func (g Guard) RequireAnyPermission(caps ...Capability) func(http.Handler) http.Handler {
	return g.require(AnyOf(caps...))
}

// RequireAllPermissions gates on holding every capability.
func (g Guard) RequireAllPermissions(caps ...Capability) func(http.Handler) http.Handler {
	return g.require(AllOf(caps...))
}

// RequireRole gates on holding any of the named roles.
func (g Guard) RequireRole(names ...string) func(http.Handler) http.Handler {
	return g.require(Roles(names...))
}

func (g Guard) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := SubjectFromContext(r.Context())
			decision := g.Engine.Authorize(subject, req)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			if subject == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", decision.Reason)
				return
			}
			if g.Logger != nil {
				g.Logger.Debug("authorization denied",
					slog.String("user", subject.SubjectName()),
					slog.String("path", r.URL.Path),
					slog.String("reason", decision.Reason))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Reason)
		})
	}
}
