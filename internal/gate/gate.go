// Package gate is the enforcement point between the current principal and
// protected routes or UI fragments. Denial is always a normal decision
// outcome, never an error.
package gate

import (
	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/session"
)

// Outcome is the gate's decision for a protected fragment.
type Outcome int

const (
	// Allow renders the protected content.
	Allow Outcome = iota
	// Fallback renders the caller-supplied fallback, which may be nothing.
	Fallback
	// Deny renders the standard insufficient-privilege notice.
	Deny
)

// Requirement describes what a protected fragment demands. Permission is
// checked alone when set; otherwise Permissions applies with RequireAll
// selecting all-of versus any-of. With neither set, any active
// administrator passes.
type Requirement struct {
	Permission  authz.Permission
	Permissions []authz.Permission
	RequireAll  bool
	// ShowError selects the denial notice over the silent fallback when
	// the principal is missing, not an administrator, or lacks the
	// permissions.
	ShowError bool
}

// Check decides whether the principal may see a protected fragment.
// Deactivation overrides any role the principal nominally holds.
func Check(p *session.Principal, req Requirement) Outcome {
	if !p.IsAdmin() {
		return denied(req)
	}
	role := p.EffectiveAdminRole()
	switch {
	case req.Permission != "":
		if authz.HasPermission(role, req.Permission) {
			return Allow
		}
	case len(req.Permissions) > 0:
		if req.RequireAll {
			if authz.HasAll(role, req.Permissions) {
				return Allow
			}
		} else if authz.HasAny(role, req.Permissions) {
			return Allow
		}
	default:
		return Allow
	}
	return denied(req)
}

// CheckRoute decides whether the principal may navigate to a route.
func CheckRoute(p *session.Principal, route string) bool {
	if !p.IsAdmin() {
		return false
	}
	return authz.CanAccessRoute(p.EffectiveAdminRole(), route)
}

// HomeRoute returns where a principal belongs after a refused navigation.
func HomeRoute(p *session.Principal) string {
	if p.IsAdmin() {
		return "/admin/dashboard"
	}
	return "/dashboard"
}

func denied(req Requirement) Outcome {
	if req.ShowError {
		return Deny
	}
	return Fallback
}
