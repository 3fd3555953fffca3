// Package user defines marketplace identities and their role tags.
package user

import (
	"strings"
	"time"
)

// Role is the closed set of marketplace roles. Permission differences
// between roles are answered by the helper methods below.
type Role string

const (
	RoleUnspecified Role = ""
	RoleStudent     Role = "student"
	RoleCustomer    Role = "customer"
	RoleAdmin       Role = "admin"
)

// ParseRole canonicalizes a role label.
func ParseRole(value string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "student":
		return RoleStudent, true
	case "customer", "client":
		return RoleCustomer, true
	case "admin":
		return RoleAdmin, true
	default:
		return RoleUnspecified, false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCustomer, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanPostMissions reports whether the role may create missions.
func (r Role) CanPostMissions() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// CanApply reports whether the role may apply to missions.
func (r Role) CanApply() bool {
	return r == RoleStudent
}

// CanBook reports whether the role may open bookings as the client party.
func (r Role) CanBook() bool {
	return r == RoleCustomer
}

// IsAdmin reports whether the role bypasses ownership checks where allowed.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User is a registered marketplace identity. Role never changes after
// creation.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Role        Role
	CreatedAt   time.Time
}
