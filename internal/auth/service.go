package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
	"docuvault/internal/domain/services"
)

type authService struct {
	userRepo repositories.UserRepository
	tokens   TokenManager
	logger   *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, tokens TokenManager, logger *slog.Logger) services.AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a new user account. The default role is VIEWER.
func (s *authService) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	if err := s.validateRegisterRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"id", user.ID,
		"username", user.Username,
		"role", user.Role,
	)

	return user, nil
}

// Login checks credentials and issues a signed token. Unknown usernames and
// wrong passwords produce the same error.
func (s *authService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required),
		validation.Field(&req.Password, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("password mismatch", "username", req.Username)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	token, expiresAt, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "id", user.ID, "username", user.Username)

	return &services.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *authService) validateRegisterRequest(req *services.RegisterRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 64), is.Alphanumeric),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&req.Role, validation.In(models.RoleAdmin, models.RoleEditor, models.RoleViewer)),
	)
}
