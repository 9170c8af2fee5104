package auth

import (
	"github.com/angelmondragon/foodorder-backend/internal/users"
	"github.com/google/uuid"
)

// RegisterRequest creates a customer account and its profile.
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	MobileNumber string `json:"mobile_number" validate:"required"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token of the session to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *users.UserDTO `json:"user"`
}

// AuthState is the identity of the caller.
type AuthState struct {
	State  string    `json:"state"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

const StateSignedIn = "signed_in"
