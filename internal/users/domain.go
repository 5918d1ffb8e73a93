package users

import (
	"time"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/identity"
)

// Account is the administrative view of a platform account.
type Account struct {
	ID          string
	Email       string
	FullName    string
	BaseRole    identity.BaseRole
	AdminRole   authz.AdminRole
	Active      bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// ListFilter narrows account listings.
type ListFilter struct {
	// Query matches against email and full name, case-insensitively.
	Query string
	// Role filters on the base role when set.
	Role identity.BaseRole
	// ActiveOnly keeps suspended accounts out of the listing.
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Counts summarises the account population for the admin dashboard.
type Counts struct {
	Total     int64
	Active    int64
	Suspended int64
	Admins    int64
}
