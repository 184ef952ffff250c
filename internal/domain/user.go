package domain

import "time"

// Role is the coarse authorization tier attached to an identity.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRole reports whether the given value is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// User is the identity record for anyone who registers with the service.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	Active       bool
	JoinedAt     time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
