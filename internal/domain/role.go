package domain

import "fmt"

// Role is a user's role on the platform
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
	RoleAdmin  Role = "admin"
)

// DefaultRole is assigned when registration does not name one
const DefaultRole = RoleMentee

// AllRoles lists every valid role
var AllRoles = []Role{RoleMentor, RoleMentee, RoleAdmin}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleMentor, RoleMentee, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role string
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q, must be one of: mentor, mentee, admin", s)
	}
	return r, nil
}

// RoleIn reports whether r is in the allowed set
func RoleIn(r Role, allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
