package handler

import (
	"log/slog"
	"net/http"

	"docuvault/internal/domain/services"
	"docuvault/internal/httputil"
)

// DirectoryHandler handles directory HTTP requests
type DirectoryHandler struct {
	directoryService services.DirectoryService
	logger           *slog.Logger
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(directoryService services.DirectoryService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
		logger:           logger,
	}
}

// CreateDirectory creates a new directory
// POST /api/directories
// Returns 201 if created, 409 if the path is taken
func (h *DirectoryHandler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req services.CreateDirectoryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dir, err := h.directoryService.CreateDirectory(r.Context(), actor, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, dir)
}

// ListRoot lists the top-level directories and files
// GET /api/directories
func (h *DirectoryHandler) ListRoot(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

// ListDirectory lists the immediate children of a directory
// GET /api/directories/{path...}
func (h *DirectoryHandler) ListDirectory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.PathValue("path"))
}

func (h *DirectoryHandler) list(w http.ResponseWriter, r *http.Request, path string) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	contents, err := h.directoryService.ListDirectory(r.Context(), actor, path)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contents)
}

// DeleteDirectory removes a directory and everything beneath it
// DELETE /api/directories/{path...}
func (h *DirectoryHandler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.directoryService.DeleteDirectory(r.Context(), actor, r.PathValue("path")); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
