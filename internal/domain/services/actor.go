package services

import "docuvault/internal/domain/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.Role
}
