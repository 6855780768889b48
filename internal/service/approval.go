package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docuvault/internal/access"
	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
	"docuvault/internal/domain/services"
)

type approvalService struct {
	fileRepo     repositories.FileRepository
	approvalRepo repositories.ApprovalRepository
	txManager    repositories.TransactionManager
	policy       *access.Registry
	logger       *slog.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	fileRepo repositories.FileRepository,
	approvalRepo repositories.ApprovalRepository,
	txManager repositories.TransactionManager,
	policy *access.Registry,
	logger *slog.Logger,
) services.ApprovalService {
	return &approvalService{
		fileRepo:     fileRepo,
		approvalRepo: approvalRepo,
		txManager:    txManager,
		policy:       policy,
		logger:       logger,
	}
}

// Approve marks a pending file as approved
func (s *approvalService) Approve(ctx context.Context, actor services.Actor, fileID string) (*models.File, error) {
	return s.decide(ctx, actor, fileID, models.DecisionApproved)
}

// Reject marks a pending file as rejected
func (s *approvalService) Reject(ctx context.Context, actor services.Actor, fileID string) (*models.File, error) {
	return s.decide(ctx, actor, fileID, models.DecisionRejected)
}

// decide applies a review decision. Only files in PENDING can be decided;
// a decision on an already-decided file is a conflict, not an overwrite.
func (s *approvalService) decide(ctx context.Context, actor services.Actor, fileID string, decision models.ApprovalDecision) (*models.File, error) {
	if err := s.policy.Require(actor.Role, access.ActionReviewFile); err != nil {
		return nil, err
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.ApprovalStatus != models.StatusPending {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("file cannot be approved, current status is %s", file.ApprovalStatus),
			ResourceType: "file",
			ResourceID:   file.ID,
		}
	}

	status := models.StatusApproved
	if decision == models.DecisionRejected {
		status = models.StatusRejected
	}

	event := &models.ApprovalEvent{
		FileID:    fileID,
		Decision:  decision,
		DecidedBy: actor.UserID,
		DecidedAt: time.Now(),
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.fileRepo.SetApproval(ctx, fileID, status, &actor.UserID); err != nil {
			return err
		}
		return s.approvalRepo.Upsert(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	file.ApprovalStatus = status
	file.ApprovedBy = &actor.UserID
	file.UpdatedAt = event.DecidedAt

	s.logger.Info("file reviewed",
		"file_id", fileID,
		"path", file.Path,
		"decision", decision,
		"decided_by", actor.UserID,
	)

	return file, nil
}

// ListPending returns the pending files visible to the actor. Admins see
// the whole queue; editors see pending files in directories they created
// or hold a WRITE grant on.
func (s *approvalService) ListPending(ctx context.Context, actor services.Actor) ([]models.File, error) {
	if err := s.policy.Require(actor.Role, access.ActionViewApprovals); err != nil {
		return nil, err
	}

	if actor.Role == models.RoleAdmin {
		return s.fileRepo.ListPending(ctx)
	}
	return s.fileRepo.ListPendingForUser(ctx, actor.UserID)
}
