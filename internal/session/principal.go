package session

import (
	"time"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/identity"
)

// Principal is the authenticated identity bound to a session.
type Principal struct {
	ID          string
	DisplayName string
	Email       string
	BaseRole    identity.BaseRole
	AdminRole   authz.AdminRole // empty when never assigned
	Active      bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// PrincipalFromProfile builds a Principal from a loaded profile record.
func PrincipalFromProfile(p *identity.Profile) *Principal {
	if p == nil {
		return nil
	}
	return &Principal{
		ID:          p.ID,
		DisplayName: p.FullName,
		Email:       p.Email,
		BaseRole:    p.BaseRole,
		AdminRole:   p.AdminRole,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		LastLoginAt: p.LastLoginAt,
	}
}

// IsAdmin reports whether the principal is an active administrator.
// Deactivation overrides the base role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.BaseRole == identity.BaseRoleAdmin && p.Active
}

// EffectiveAdminRole resolves the administrative role consulted by the
// evaluator. An administrator without an assigned role gets the
// least-privileged role from the table; an explicitly stored role is kept
// verbatim even when unknown, so the evaluator fails closed on it.
func (p *Principal) EffectiveAdminRole() authz.AdminRole {
	if p == nil {
		return ""
	}
	if p.AdminRole != "" {
		return p.AdminRole
	}
	return authz.DefaultAdminRole
}
