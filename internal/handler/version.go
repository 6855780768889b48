package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"docuvault/internal/domain/services"
	"docuvault/internal/httputil"
)

// VersionHandler handles version history HTTP requests
type VersionHandler struct {
	fileService services.FileService
	logger      *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(fileService services.FileService, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// ListVersions returns the version history of a file, oldest first
// GET /api/files/{id}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	versions, err := h.fileService.ListVersions(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// RestoreVersion re-activates an archived version as the current content
// POST /api/files/{id}/versions/{number}/restore
func (h *VersionHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		httputil.RespondError(w, http.StatusBadRequest, "invalid version number")
		return
	}

	version, err := h.fileService.RestoreVersion(r.Context(), actor, r.PathValue("id"), number)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// DeleteVersion removes a single archived version
// DELETE /api/files/{id}/versions/{number}
func (h *VersionHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		httputil.RespondError(w, http.StatusBadRequest, "invalid version number")
		return
	}

	if err := h.fileService.DeleteVersion(r.Context(), actor, r.PathValue("id"), number); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
