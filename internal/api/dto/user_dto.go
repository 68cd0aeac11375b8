package dto

import (
	"time"

	"github.com/spec-kit/support-mesh/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest carries a token in the body when no Authorization header is sent.
type TokenRequest struct {
	Token string `json:"token"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenValidationResponse never carries the failure reason.
type TokenValidationResponse struct {
	Valid    bool        `json:"valid"`
	Username string      `json:"username,omitempty"`
	UserID   string      `json:"userId,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// ToUserResponse maps a domain user.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
