package dto

import (
	"time"

	"github.com/oumaimagaidi/TicketFlow/internal/domain"
)

// RegisterRequest payload for new identities.
type RegisterRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	Username  string      `json:"username" validate:"required"`
	Password  string      `json:"password" validate:"required"`
	Password2 string      `json:"password2" validate:"required"`
	Role      domain.Role `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// LogoutRequest invalidates a refresh token.
type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// UserResponse is the identity record rendered to callers.
type UserResponse struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	IsActive bool        `json:"is_active"`
	JoinedAt time.Time   `json:"date_joined"`
}

// TokenPairResponse carries the issued credentials.
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
		IsActive: user.Active,
		JoinedAt: user.JoinedAt,
	}
}
