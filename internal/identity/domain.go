package identity

import (
	"time"

	"github.com/wolv-invest/platform/internal/authz"
)

// BaseRole is the coarse distinction between ordinary users and
// administrators.
type BaseRole string

const (
	BaseRoleUser  BaseRole = "user"
	BaseRoleAdmin BaseRole = "admin"
)

// Credential is the backend's view of a verified or newly created
// credential.
type Credential struct {
	SubjectID string
	Confirmed bool
}

// Profile is the stored account record backing a principal. AdminRole is
// empty for ordinary users and for administrators that were never assigned
// a fine-grained role.
type Profile struct {
	ID          string
	Email       string
	FullName    string
	BaseRole    BaseRole
	AdminRole   authz.AdminRole
	Active      bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// adminRoleFromString keeps the stored value verbatim. Unknown roles are
// preserved so the evaluator can fail closed on them instead of silently
// defaulting.
func adminRoleFromString(s string) authz.AdminRole {
	return authz.AdminRole(s)
}
