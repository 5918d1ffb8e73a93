// Package authz holds the fixed permission catalog, the administrative role
// table, and the pure evaluation functions over them. Everything here is
// process-wide constant data; callers are responsible for rejecting
// deactivated principals before consulting the evaluator.
package authz

// HasPermission reports whether the role's permission set contains the
// given permission. Unknown roles fail closed.
func HasPermission(role AdminRole, perm Permission) bool {
	def, ok := definitions[role]
	if !ok {
		return false
	}
	for _, p := range def.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAny reports whether the role holds at least one of the permissions.
// An empty list is never satisfied.
func HasAny(role AdminRole, perms []Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether the role holds every permission in the list.
// An empty list is vacuously satisfied.
func HasAll(role AdminRole, perms []Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}
