package authz_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wolv-invest/platform/internal/authz"
)

func TestCanAccessRouteUnmappedIsOpen(t *testing.T) {
	require.True(t, authz.CanAccessRoute(authz.RoleModerator, "/admin/profile"))
	require.True(t, authz.CanAccessRoute("intern", "/admin/profile"))
}

func TestCanAccessRouteRequiresAnyPermission(t *testing.T) {
	require.True(t, authz.CanAccessRoute(authz.RoleSupport, "/admin/users"))
	require.False(t, authz.CanAccessRoute(authz.RoleModerator, "/admin/settings"))
	require.False(t, authz.CanAccessRoute(authz.RoleManager, "/admin/system"))
}

func TestManagerCannotReachSecurityGuardedRoute(t *testing.T) {
	route := "/admin/security"
	// Not in the static table; simulate via direct permission check.
	require.False(t, authz.HasAny(authz.RoleManager, []authz.Permission{authz.PermSettingsSecurity}))
	require.True(t, authz.CanAccessRoute(authz.RoleManager, route)) // unmapped stays open
}

func TestAccessibleRoutes(t *testing.T) {
	all := authz.AccessibleRoutes(authz.RoleSuperAdmin)
	require.Len(t, all, 9)

	moderator := authz.AccessibleRoutes(authz.RoleModerator)
	require.ElementsMatch(t, []string{
		"/admin/users",
		"/admin/investments",
		"/admin/transactions",
		"/admin/support",
	}, moderator)

	analyst := authz.AccessibleRoutes(authz.RoleAnalyst)
	require.Contains(t, analyst, "/admin/reports")
	require.NotContains(t, analyst, "/admin/settings")
	require.NotContains(t, analyst, "/admin/support")
}

func TestRequiredPermissions(t *testing.T) {
	require.Equal(t, []authz.Permission{authz.PermUsersView}, authz.RequiredPermissions("/admin/users"))
	require.Nil(t, authz.RequiredPermissions("/admin/unknown"))
}
