package domain

import (
	"fmt"
	"strings"
)

// Role is the caller's access level. It decides whether personal info is visible.
type Role string

// Caller roles.
const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role name. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleCandidate, RoleRecruiter, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidQuery, s)
	}
}

// Privileged reports whether the role may see personal info.
func (r Role) Privileged() bool {
	return r == RoleRecruiter || r == RoleAdmin
}
