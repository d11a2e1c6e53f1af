// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SignupRequest represents the request payload for account creation
type SignupRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=255" example:"Jane Buyer"`
	Email    string  `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Password string  `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,e164" example:"+31612345678"`
}

// SignupResponse represents the successful signup response
type SignupResponse struct {
	Profile AuthProfileDTO    `json:"profile"`
	Session ProfileSessionDTO `json:"session"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Profile AuthProfileDTO    `json:"profile"`
	Session ProfileSessionDTO `json:"session"`
}

// RefreshTokenRequest represents the request payload for refreshing tokens
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// RefreshTokenResponse represents the response with freshly issued tokens
type RefreshTokenResponse struct {
	Session ProfileSessionDTO `json:"session"`
}

// LogoutResponse reports how many sessions the logout closed
type LogoutResponse struct {
	SessionsClosed int `json:"sessions_closed" example:"1"`
}

// AuthProfileDTO represents profile information returned in auth responses
type AuthProfileDTO struct {
	ID        uint    `json:"id" example:"123"`
	UUID      string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string  `json:"name" example:"Jane Buyer"`
	Email     string  `json:"email" example:"jane@example.com"`
	Phone     *string `json:"phone,omitempty" example:"+31612345678"`
	IsAdmin   *bool   `json:"is_admin" example:"false"`
	IsActive  *bool   `json:"is_active" example:"true"`
	CreatedAt string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// ProfileSessionDTO represents the token pair issued for a session
type ProfileSessionDTO struct {
	SessionToken string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	ExpiresIn    int     `json:"expires_in" example:"86400"`
	TokenType    string  `json:"token_type" example:"Bearer"`
	CreatedAt    string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// Common error codes for auth operations
const (
	ErrorUserNotFound       = "USER_NOT_FOUND"
	ErrorIncorrectPassword  = "INCORRECT_PASSWORD"
	ErrorAccountInactive    = "ACCOUNT_INACTIVE"
	ErrorEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
)
