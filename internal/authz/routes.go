package authz

// routePolicy maps an admin route to the permissions that grant access.
// Any one of the listed permissions is sufficient. Routes without an entry
// are open to every administrator.
var routePolicy = map[string][]Permission{
	"/admin/dashboard":    {PermAnalyticsView},
	"/admin/users":        {PermUsersView},
	"/admin/investments":  {PermInvestmentsView},
	"/admin/transactions": {PermTransactionsView},
	"/admin/analytics":    {PermAnalyticsView},
	"/admin/settings":     {PermSettingsView},
	"/admin/support":      {PermSupportView},
	"/admin/reports":      {PermReportsGenerate},
	"/admin/system":       {PermSystemLogs},
}

// adminRoutes is the full set of navigable admin routes.
var adminRoutes = []string{
	"/admin/dashboard",
	"/admin/users",
	"/admin/investments",
	"/admin/transactions",
	"/admin/analytics",
	"/admin/settings",
	"/admin/support",
	"/admin/reports",
	"/admin/system",
}

// RequiredPermissions returns the permissions guarding a route, or nil when
// the route is unmapped.
func RequiredPermissions(route string) []Permission {
	return routePolicy[route]
}

// CanAccessRoute reports whether the role may navigate to the route.
// Unmapped routes are permitted.
func CanAccessRoute(role AdminRole, route string) bool {
	required, ok := routePolicy[route]
	if !ok {
		return true
	}
	return HasAny(role, required)
}

// AccessibleRoutes filters the known admin routes down to those the role
// can reach.
func AccessibleRoutes(role AdminRole) []string {
	routes := make([]string, 0, len(adminRoutes))
	for _, route := range adminRoutes {
		if CanAccessRoute(role, route) {
			routes = append(routes, route)
		}
	}
	return routes
}
