package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// RoleHandler handles role and permission endpoints
type RoleHandler struct {
	roleService *service.RoleService
	logger      *zap.Logger
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(roleService *service.RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
		logger:      logger,
	}
}

// List godoc
// @Summary List roles with their permissions
// @Tags Roles
// @Produce json
// @Success 200 {array} domain.RoleDTO "Roles"
// @Security BearerAuth
// @Router /roles [get]
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list roles", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, roles)
}

// Get godoc
// @Summary Get a role
// @Tags Roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} domain.RoleDTO "Role"
// @Failure 404 {object} domain.APIError "Role not found"
// @Security BearerAuth
// @Router /roles/{id} [get]
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid role ID")
		return
	}

	role, err := h.roleService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, role)
}

// Update godoc
// @Summary Update a role's description or permissions
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param request body domain.UpdateRoleRequest true "Fields to change"
// @Success 200 {object} domain.RoleDTO "Updated role"
// @Failure 400 {object} domain.APIError "Unknown permission"
// @Security BearerAuth
// @Router /roles/{id} [put]
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid role ID")
		return
	}

	var req domain.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	role, err := h.roleService.Update(r.Context(), r, id, &req)
	if err != nil {
		h.logger.Error("failed to update role", zap.Error(err), zap.String("role_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, role)
}

// ListPermissions godoc
// @Summary List all known permissions
// @Tags Roles
// @Produce json
// @Success 200 {array} string "Permission names"
// @Security BearerAuth
// @Router /permissions [get]
func (h *RoleHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.roleService.ListPermissions(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, permissions)
}
