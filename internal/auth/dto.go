// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/kidsask/api/internal/account"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"           validate:"required"`
	Password        string `json:"password"        validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,strongpassword"`
}

type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresIn   int       `json:"expiresIn"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type LoginResponse struct {
	User   account.AccountResponse `json:"user"`
	Tokens TokenResponse           `json:"tokens"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenValidityResponse struct {
	Valid bool `json:"valid"`
}
