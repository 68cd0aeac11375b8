package domain

import (
	"strings"
	"time"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is an account known to the identity service. Email is the login
// name and the token subject.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser returns an active ROLE_USER account with a normalized email.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     strings.TrimSpace(username),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Status:       UserStatusActive,
	}
}

// NormalizeEmail lowercases and trims an address. Lookups and uniqueness
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanLogin reports whether the account may be issued tokens.
func (u *User) CanLogin() bool {
	return u != nil && u.Status == UserStatusActive
}

// Roles is the role set carried in issued tokens.
func (u *User) Roles() []Role {
	return []Role{u.Role}
}
