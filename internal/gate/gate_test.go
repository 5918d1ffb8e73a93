package gate_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/gate"
	"github.com/wolv-invest/platform/internal/identity"
	"github.com/wolv-invest/platform/internal/session"
	_ "github.com/wolv-invest/platform/testing"
)

func adminPrincipal(role authz.AdminRole, active bool) *session.Principal {
	return &session.Principal{
		ID:        "subject-1",
		BaseRole:  identity.BaseRoleAdmin,
		AdminRole: role,
		Active:    active,
	}
}

func TestCheckDeniesMissingPrincipal(t *testing.T) {
	req := gate.Requirement{Permission: authz.PermUsersView, ShowError: true}
	require.Equal(t, gate.Deny, gate.Check(nil, req))

	req.ShowError = false
	require.Equal(t, gate.Fallback, gate.Check(nil, req))
}

func TestCheckDeniesOrdinaryUser(t *testing.T) {
	p := &session.Principal{BaseRole: identity.BaseRoleUser, Active: true}
	req := gate.Requirement{Permission: authz.PermUsersView, ShowError: true}
	require.Equal(t, gate.Deny, gate.Check(p, req))
}

func TestCheckDeniesInactiveRegardlessOfRole(t *testing.T) {
	p := adminPrincipal(authz.RoleSuperAdmin, false)
	req := gate.Requirement{Permission: authz.PermUsersView, ShowError: true}
	require.Equal(t, gate.Deny, gate.Check(p, req))
	require.False(t, gate.CheckRoute(p, "/admin/users"))
}

func TestCheckSinglePermission(t *testing.T) {
	p := adminPrincipal(authz.RoleSupport, true)
	require.Equal(t, gate.Allow, gate.Check(p, gate.Requirement{Permission: authz.PermTransactionsView}))
	require.Equal(t, gate.Fallback, gate.Check(p, gate.Requirement{Permission: authz.PermInvestmentsPause}))
}

func TestCheckAnyVersusAll(t *testing.T) {
	p := adminPrincipal(authz.RoleModerator, true)
	perms := []authz.Permission{authz.PermUsersView, authz.PermSettingsSecurity}
	require.Equal(t, gate.Allow, gate.Check(p, gate.Requirement{Permissions: perms}))
	require.Equal(t, gate.Fallback, gate.Check(p, gate.Requirement{Permissions: perms, RequireAll: true}))
}

func TestCheckNoRequirementAdmitsActiveAdmin(t *testing.T) {
	p := adminPrincipal("", true)
	require.Equal(t, gate.Allow, gate.Check(p, gate.Requirement{}))
}

func TestCheckUnassignedRoleFallsBackToLeastPrivileged(t *testing.T) {
	p := adminPrincipal("", true)
	// Moderator permissions apply by default.
	require.Equal(t, gate.Allow, gate.Check(p, gate.Requirement{Permission: authz.PermUsersSuspend}))
	require.Equal(t, gate.Fallback, gate.Check(p, gate.Requirement{Permission: authz.PermUsersDelete}))
}

func TestRequireRouteRedirectsUnauthenticatedToLogin(t *testing.T) {
	handler := gate.Middleware{}.RequireRoute("/admin/users")(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, gate.LoginRoute, rec.Header().Get("Location"))
}

func TestRequireRouteRedirectsUnauthorizedHome(t *testing.T) {
	denials := 0
	mw := gate.Middleware{OnDenied: func(string) { denials++ }}
	handler := mw.RequireRoute("/admin/settings")(okHandler())

	p := adminPrincipal(authz.RoleManager, true)
	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req = req.WithContext(session.ContextWithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Manager holds settings.view, so /admin/settings is reachable.
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, denials)

	handler = mw.RequireRoute("/admin/system")(okHandler())
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
	require.Equal(t, 1, denials)
}

func TestRequireRouteRedirectsOrdinaryUserToUserHome(t *testing.T) {
	p := &session.Principal{BaseRole: identity.BaseRoleUser, Active: true}
	handler := gate.Middleware{}.RequireRoute("/admin/users")(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req = req.WithContext(session.ContextWithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestRequireAnyReturnsForbiddenProblem(t *testing.T) {
	handler := gate.Middleware{}.RequireAny(authz.PermSystemLogs)(okHandler())
	p := adminPrincipal(authz.RoleSupport, true)
	req := httptest.NewRequest(http.MethodGet, "/api/system/logs", nil)
	req = req.WithContext(session.ContextWithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRequireAllAdmitsSuperAdmin(t *testing.T) {
	handler := gate.Middleware{}.RequireAll(authz.PermSystemBackup, authz.PermSystemMaintenance)(okHandler())
	p := adminPrincipal(authz.RoleSuperAdmin, true)
	req := httptest.NewRequest(http.MethodPost, "/api/system/backup", nil)
	req = req.WithContext(session.ContextWithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
