package services

import (
	"context"
	"time"

	"docuvault/internal/domain/models"
)

// AuthService handles account registration and login
type AuthService interface {
	// Register creates a new user account
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)

	// Login checks credentials and issues a signed token
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RegisterRequest represents an account registration
type RegisterRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult carries the issued token and the authenticated user
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}
