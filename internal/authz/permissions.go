package authz

// Permission is an atomic capability tag of the form "<domain>.<action>".
type Permission string

// User management permissions.
const (
	PermUsersView     Permission = "users.view"
	PermUsersCreate   Permission = "users.create"
	PermUsersEdit     Permission = "users.edit"
	PermUsersDelete   Permission = "users.delete"
	PermUsersSuspend  Permission = "users.suspend"
	PermUsersActivate Permission = "users.activate"
	PermUsersExport   Permission = "users.export"
)

// Investment management permissions.
const (
	PermInvestmentsView   Permission = "investments.view"
	PermInvestmentsCreate Permission = "investments.create"
	PermInvestmentsEdit   Permission = "investments.edit"
	PermInvestmentsPause  Permission = "investments.pause"
	PermInvestmentsResume Permission = "investments.resume"
	PermInvestmentsCancel Permission = "investments.cancel"
	PermInvestmentsExport Permission = "investments.export"
)

// Transaction management permissions.
const (
	PermTransactionsView    Permission = "transactions.view"
	PermTransactionsApprove Permission = "transactions.approve"
	PermTransactionsReject  Permission = "transactions.reject"
	PermTransactionsExport  Permission = "transactions.export"
	PermTransactionsRefund  Permission = "transactions.refund"
)

// Analytics and reporting permissions.
const (
	PermAnalyticsView   Permission = "analytics.view"
	PermAnalyticsExport Permission = "analytics.export"
	PermReportsGenerate Permission = "reports.generate"
	PermReportsExport   Permission = "reports.export"
)

// Settings management permissions.
const (
	PermSettingsView            Permission = "settings.view"
	PermSettingsEdit            Permission = "settings.edit"
	PermSettingsPlatform        Permission = "settings.platform"
	PermSettingsInvestmentPlans Permission = "settings.investment_plans"
	PermSettingsSecurity        Permission = "settings.security"
	PermSettingsNotifications   Permission = "settings.notifications"
	PermSettingsFinancial       Permission = "settings.financial"
	PermSettingsEmail           Permission = "settings.email"
)

// System administration permissions.
const (
	PermSystemMaintenance Permission = "system.maintenance"
	PermSystemBackup      Permission = "system.backup"
	PermSystemLogs        Permission = "system.logs"
	PermSystemAudit       Permission = "system.audit"
)

// Support and communication permissions.
const (
	PermSupportView                    Permission = "support.view"
	PermSupportRespond                 Permission = "support.respond"
	PermSupportEscalate                Permission = "support.escalate"
	PermCommunicationSendNotifications Permission = "communication.send_notifications"
	PermCommunicationSendEmails        Permission = "communication.send_emails"
)

// Catalog lists every permission known to the platform.
func Catalog() []Permission {
	return []Permission{
		PermUsersView,
		PermUsersCreate,
		PermUsersEdit,
		PermUsersDelete,
		PermUsersSuspend,
		PermUsersActivate,
		PermUsersExport,
		PermInvestmentsView,
		PermInvestmentsCreate,
		PermInvestmentsEdit,
		PermInvestmentsPause,
		PermInvestmentsResume,
		PermInvestmentsCancel,
		PermInvestmentsExport,
		PermTransactionsView,
		PermTransactionsApprove,
		PermTransactionsReject,
		PermTransactionsExport,
		PermTransactionsRefund,
		PermAnalyticsView,
		PermAnalyticsExport,
		PermReportsGenerate,
		PermReportsExport,
		PermSettingsView,
		PermSettingsEdit,
		PermSettingsPlatform,
		PermSettingsInvestmentPlans,
		PermSettingsSecurity,
		PermSettingsNotifications,
		PermSettingsFinancial,
		PermSettingsEmail,
		PermSystemMaintenance,
		PermSystemBackup,
		PermSystemLogs,
		PermSystemAudit,
		PermSupportView,
		PermSupportRespond,
		PermSupportEscalate,
		PermCommunicationSendNotifications,
		PermCommunicationSendEmails,
	}
}
