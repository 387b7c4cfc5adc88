// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to a principal.
type UserRole string

const (
	// Unrestricted access to employee and user management
	RoleAdmin UserRole = "ADMIN"

	// Default role for self-registered principals
	RoleUser UserRole = "USER"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}

// # Identity

// Identity is the request-scoped principal derived from a validated token.
type Identity struct {
	LoginName string   `json:"loginName"`
	Role      UserRole `json:"role"`
}
