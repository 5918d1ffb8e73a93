package authz

// AdminRole is one of the six fine-grained administrative roles.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super_admin"
	RoleAdmin      AdminRole = "admin"
	RoleManager    AdminRole = "manager"
	RoleSupport    AdminRole = "support"
	RoleAnalyst    AdminRole = "analyst"
	RoleModerator  AdminRole = "moderator"
)

// DefaultAdminRole is assumed when an administrator carries no explicit
// administrative role. It is the least-privileged role in the table.
const DefaultAdminRole = RoleModerator

// RoleDefinition describes an administrative role and its permission set.
type RoleDefinition struct {
	Name        string
	Description string
	Permissions []Permission
	Color       string
	Priority    int
}

// definitions maps every administrative role to its fixed definition.
// Built once at init and never mutated afterwards.
var definitions = map[AdminRole]RoleDefinition{
	RoleSuperAdmin: {
		Name:        "Super Administrator",
		Description: "Full system access with all permissions",
		Color:       "red",
		Priority:    100,
		Permissions: Catalog(),
	},
	RoleAdmin: {
		Name:        "Administrator",
		Description: "Full operational access, limited system settings",
		Color:       "orange",
		Priority:    80,
		Permissions: []Permission{
			PermUsersView, PermUsersCreate, PermUsersEdit,
			PermUsersSuspend, PermUsersActivate, PermUsersExport,
			PermInvestmentsView, PermInvestmentsCreate, PermInvestmentsEdit,
			PermInvestmentsPause, PermInvestmentsResume, PermInvestmentsCancel,
			PermInvestmentsExport,
			PermTransactionsView, PermTransactionsApprove, PermTransactionsReject,
			PermTransactionsExport, PermTransactionsRefund,
			PermAnalyticsView, PermAnalyticsExport,
			PermReportsGenerate, PermReportsExport,
			PermSettingsView, PermSettingsEdit, PermSettingsInvestmentPlans,
			PermSettingsNotifications, PermSettingsFinancial,
			PermSupportView, PermSupportRespond, PermSupportEscalate,
			PermCommunicationSendNotifications, PermCommunicationSendEmails,
		},
	},
	RoleManager: {
		Name:        "Manager",
		Description: "User and investment management, limited settings access",
		Color:       "blue",
		Priority:    60,
		Permissions: []Permission{
			PermUsersView, PermUsersEdit, PermUsersSuspend,
			PermUsersActivate, PermUsersExport,
			PermInvestmentsView, PermInvestmentsEdit, PermInvestmentsPause,
			PermInvestmentsResume, PermInvestmentsExport,
			PermTransactionsView, PermTransactionsApprove, PermTransactionsReject,
			PermTransactionsExport,
			PermAnalyticsView, PermAnalyticsExport, PermReportsGenerate,
			PermSettingsView, PermSettingsInvestmentPlans,
			PermSupportView, PermSupportRespond,
			PermCommunicationSendNotifications,
		},
	},
	RoleSupport: {
		Name:        "Support Agent",
		Description: "Customer support and basic user management",
		Color:       "green",
		Priority:    40,
		Permissions: []Permission{
			PermUsersView, PermUsersEdit, PermUsersExport,
			PermInvestmentsView, PermInvestmentsExport,
			PermTransactionsView, PermTransactionsExport,
			PermAnalyticsView,
			PermSupportView, PermSupportRespond,
			PermCommunicationSendEmails,
		},
	},
	RoleAnalyst: {
		Name:        "Data Analyst",
		Description: "Analytics, reports, and read-only access",
		Color:       "purple",
		Priority:    30,
		Permissions: []Permission{
			PermUsersView, PermUsersExport,
			PermInvestmentsView, PermInvestmentsExport,
			PermTransactionsView, PermTransactionsExport,
			PermAnalyticsView, PermAnalyticsExport,
			PermReportsGenerate, PermReportsExport,
		},
	},
	RoleModerator: {
		Name:        "Content Moderator",
		Description: "Basic user management and content moderation",
		Color:       "gray",
		Priority:    20,
		Permissions: []Permission{
			PermUsersView, PermUsersSuspend, PermUsersActivate,
			PermInvestmentsView,
			PermTransactionsView,
			PermSupportView, PermSupportRespond,
		},
	},
}

// AllRoles lists the administrative roles ordered by descending priority.
func AllRoles() []AdminRole {
	return []AdminRole{
		RoleSuperAdmin,
		RoleAdmin,
		RoleManager,
		RoleSupport,
		RoleAnalyst,
		RoleModerator,
	}
}

// ValidRole reports whether the given role exists in the role table.
func ValidRole(role AdminRole) bool {
	_, ok := definitions[role]
	return ok
}

// DefinitionOf returns the definition for a role. The second return value
// is false for unknown roles.
func DefinitionOf(role AdminRole) (RoleDefinition, bool) {
	def, ok := definitions[role]
	return def, ok
}

// RolePermissions returns the permission set held by a role. Unknown roles
// yield an empty set.
func RolePermissions(role AdminRole) []Permission {
	def, ok := definitions[role]
	if !ok {
		return nil
	}
	return def.Permissions
}
