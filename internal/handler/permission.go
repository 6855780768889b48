package handler

import (
	"log/slog"
	"net/http"

	"docuvault/internal/domain/models"
	"docuvault/internal/domain/services"
	"docuvault/internal/httputil"
)

// PermissionHandler handles grant and revocation HTTP requests
type PermissionHandler struct {
	permissionService services.PermissionService
	logger            *slog.Logger
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permissionService services.PermissionService, logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
		logger:            logger,
	}
}

// Grant gives a user access to a resource
// POST /api/permissions
func (h *PermissionHandler) Grant(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req services.GrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	perm, err := h.permissionService.Grant(r.Context(), actor, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, perm)
}

// Revoke removes a user's grant on a resource
// DELETE /api/permissions
func (h *PermissionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req services.RevokeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.permissionService.Revoke(r.Context(), actor, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Check reports the actor's effective access to a resource
// GET /api/permissions/check/{resourceType}/{resourceId}?required=READ
func (h *PermissionHandler) Check(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	resourceType := models.ResourceType(r.PathValue("resourceType"))
	if resourceType != models.ResourceFile && resourceType != models.ResourceDirectory {
		httputil.RespondError(w, http.StatusBadRequest, "resource type must be FILE or DIRECTORY")
		return
	}

	required := models.PermissionType(r.URL.Query().Get("required"))
	if required == "" {
		required = models.PermissionRead
	}

	allowed, err := h.permissionService.Check(r.Context(), actor, resourceType, r.PathValue("resourceId"), required)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"allowed":     allowed,
		"permission":  required,
		"resource_id": r.PathValue("resourceId"),
	})
}

// ListForResource returns all grants on a resource
// GET /api/permissions?resource_type=DIRECTORY&resource_id=...
func (h *PermissionHandler) ListForResource(w http.ResponseWriter, r *http.Request) {
	actor, err := getActor(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	resourceType := models.ResourceType(r.URL.Query().Get("resource_type"))
	resourceID := r.URL.Query().Get("resource_id")
	if resourceID == "" || (resourceType != models.ResourceFile && resourceType != models.ResourceDirectory) {
		httputil.RespondError(w, http.StatusBadRequest, "resource_type and resource_id are required")
		return
	}

	perms, err := h.permissionService.ListForResource(r.Context(), actor, resourceType, resourceID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, perms)
}
