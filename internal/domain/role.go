package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. The zero value is not a valid role.
type Role string

const (
	RoleUser     Role = "USER"
	RolePartner  Role = "PARTNER"
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RolePartner, RoleAdmin, RoleEmployee}

// ParseRole returns the Role for s, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RolePartner:
		return RolePartner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleEmployee:
		return RoleEmployee, nil
	}
	return "", fmt.Errorf("unknown role %q: %w", s, ErrBadRequest)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RolePartner, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// UserType is the audience hint sent by signin and signup forms. Staff
// accounts have no hint; they sign in with a one-time code.
type UserType string

const (
	UserTypeUser    UserType = "user"
	UserTypePartner UserType = "partner"
)

// Role maps the hint to the account role it selects: partner selects
// PARTNER, anything else selects USER.
func (t UserType) Role() Role {
	if UserType(strings.ToLower(string(t))) == UserTypePartner {
		return RolePartner
	}
	return RoleUser
}
