package model

import (
	"errors"
	"strings"
	"time"
)

// Role is the access level attached to every account.  Exactly two values
// are legal; the users table enforces the same set with a CHECK constraint.
type Role string

const (
	RoleUser  Role = "USER"  // default for self-registered accounts
	RoleAdmin Role = "ADMIN" // may write the idea catalog
)

// ErrInvalidRole is returned by ParseRole for anything but USER or ADMIN.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes s and rejects unknown roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the process: it is tagged
// out of JSON so handlers can return the struct directly.
//
// Fields:
//
//   - ID: primary key identifier of the user.
//   - Name: display name.
//   - Email: unique, lower-cased email address.
//   - PasswordHash: bcrypt hashed password.
//   - Role: USER or ADMIN.
//   - CreatedAt: timestamp of creation.
//   - UpdatedAt: timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`        // users.id
	Name         string    `json:"name"`      // users.name
	Email        string    `json:"email"`     // users.email
	PasswordHash string    `json:"-"`         // users.password_hash
	Role         Role      `json:"role"`      // users.role
	CreatedAt    time.Time `json:"createdAt"` // users.created_at
	UpdatedAt    time.Time `json:"updatedAt"` // users.updated_at
}

// IsAdmin reports whether u may manage the idea catalog.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
