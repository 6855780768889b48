package services

import (
	"context"

	"docuvault/internal/domain/models"
)

// ApprovalService handles the file review workflow
type ApprovalService interface {
	// Approve marks a pending file as approved
	Approve(ctx context.Context, actor Actor, fileID string) (*models.File, error)

	// Reject marks a pending file as rejected
	Reject(ctx context.Context, actor Actor, fileID string) (*models.File, error)

	// ListPending returns the pending files visible to the actor
	ListPending(ctx context.Context, actor Actor) ([]models.File, error)
}
