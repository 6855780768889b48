package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"docuvault/internal/config"
	"docuvault/internal/domain/services"
	"docuvault/internal/httputil"
)

// FileHandler handles file HTTP requests
type FileHandler struct {
	fileService services.FileService
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService services.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// Upload stores new file content from a multipart form. Fields:
// directory_path, description, and the content under "file". The part's
// filename names the file unless a "name" field overrides it.
// POST /api/files
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes+1<<20)
	// Small memory cap; bigger parts spill to temp files.
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer part.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	req := &services.UploadRequest{
		DirectoryPath: r.FormValue("directory_path"),
		Name:          name,
		Description:   r.FormValue("description"),
		Content:       part,
	}

	result, err := h.fileService.Upload(r.Context(), actor, req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	// A nil version means the upload created the file.
	status := http.StatusCreated
	if result.Version != nil {
		status = http.StatusOK
	}
	httputil.RespondJSON(w, status, result)
}

// GetFile returns file metadata
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	file, err := h.fileService.GetFile(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// Download streams the current content of a file
// GET /api/files/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	file, content, err := h.fileService.Download(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	if _, err := io.Copy(w, content); err != nil {
		h.logger.Warn("download interrupted", "file_id", file.ID, "error", err)
	}
}
