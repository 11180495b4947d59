package entity

import "strings"

// Role represents an authorization role carried on the user row and in
// session token claims.
type Role string

const (
	// RoleAnonymous is a registered account whose email is not verified yet.
	RoleAnonymous     Role = "ANONYMOUS"
	RoleAuthenticated Role = "AUTHENTICATED"
	RoleManager       Role = "MANAGER"
	RoleAdmin         Role = "ADMIN"
)

func (r Role) String() string { return string(r) }

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}
