package handler

import (
	"log/slog"
	"net/http"

	"docuvault/internal/domain/services"
	"docuvault/internal/httputil"
)

// ApprovalHandler handles file review HTTP requests
type ApprovalHandler struct {
	approvalService services.ApprovalService
	logger          *slog.Logger
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalService services.ApprovalService, logger *slog.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
		logger:          logger,
	}
}

// Approve marks a pending file as approved
// POST /api/files/{id}/approve
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	file, err := h.approvalService.Approve(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// Reject marks a pending file as rejected
// POST /api/files/{id}/reject
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	file, err := h.approvalService.Reject(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// ListPending returns the pending files visible to the caller
// GET /api/approvals/pending
func (h *ApprovalHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	files, err := h.approvalService.ListPending(r.Context(), actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}
