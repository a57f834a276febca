package entity

import "time"

// Role is the authorization key for every lifecycle guard
type Role string

const (
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
	RoleStudent   Role = "student"
)

// IsValid returns true for the three known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleProfessor, RoleAdmin, RoleStudent:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// User is a portal account
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of a lifecycle operation
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsProfessor reports whether the actor holds the professor role
func (a Actor) IsProfessor() bool {
	return a.Role == RoleProfessor
}
