package gate

import (
	"log/slog"
	"net/http"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/platform/httpx"
	"github.com/wolv-invest/platform/internal/session"
)

// LoginRoute is where unauthenticated navigation is redirected.
const LoginRoute = "/login"

// Middleware gates HTTP routes and API fragments on the request principal.
type Middleware struct {
	Logger *slog.Logger
	// OnDenied observes permission denials, e.g. for metrics. Optional.
	OnDenied func(route string)
}

// RequireRoute guards a full-page navigation. Refusals redirect instead of
// rendering in place: unauthenticated to the login route, authenticated
// but unauthorized to the principal's home route.
func (m Middleware) RequireRoute(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := session.PrincipalFromContext(r.Context())
			if p == nil {
				http.Redirect(w, r, LoginRoute, http.StatusSeeOther)
				return
			}
			if !CheckRoute(p, route) {
				m.denied(route)
				http.Redirect(w, r, HomeRoute(p), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated guards routes that only need a signed-in principal.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.PrincipalFromContext(r.Context()) == nil {
			http.Redirect(w, r, LoginRoute, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny admits principals holding at least one of the permissions.
// API-shaped denial: 403 problem detail, never a redirect.
func (m Middleware) RequireAny(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.require(Requirement{Permissions: perms, ShowError: true})
}

// RequireAll admits principals holding every permission.
func (m Middleware) RequireAll(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.require(Requirement{Permissions: perms, RequireAll: true, ShowError: true})
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := session.PrincipalFromContext(r.Context())
			if Check(p, req) != Allow {
				m.denied(r.URL.Path)
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) denied(route string) {
	if m.OnDenied != nil {
		m.OnDenied(route)
	}
	if m.Logger != nil {
		m.Logger.Warn("permission denied", slog.String("route", route))
	}
}
