package dto

import (
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// UserRegisterRequest payload for new client accounts.
type UserRegisterRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Phone       string      `json:"phone,omitempty"`
	Company     string      `json:"company,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ProfileUpdateRequest payload.
type ProfileUpdateRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Bio         string `json:"bio"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest starts a reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes a reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// RoleUpdateRequest payload for admins.
type RoleUpdateRequest struct {
	Role string `json:"role"`
}

// ActiveUpdateRequest payload for admins.
type ActiveUpdateRequest struct {
	Active *bool `json:"active"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
		Phone:       u.Phone,
		Company:     u.Company,
		Bio:         u.Bio,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
	}
}
