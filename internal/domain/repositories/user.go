package repositories

import (
	"context"

	"docuvault/internal/domain/models"
)

// UserRepository persists registered accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
