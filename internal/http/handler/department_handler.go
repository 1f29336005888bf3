package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// DepartmentHandler handles department endpoints
type DepartmentHandler struct {
	departmentService *service.DepartmentService
	logger            *zap.Logger
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(departmentService *service.DepartmentService, logger *zap.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		departmentService: departmentService,
		logger:            logger,
	}
}

type departmentRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"omitempty,max=20"`
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {array} domain.DepartmentDTO "Departments"
// @Security BearerAuth
// @Router /departments [get]
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departmentService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list departments", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, departments)
}

// Get godoc
// @Summary Get a department
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} domain.DepartmentDTO "Department"
// @Failure 404 {object} domain.APIError "Department not found"
// @Security BearerAuth
// @Router /departments/{id} [get]
func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid department ID")
		return
	}

	department, err := h.departmentService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, department)
}

// Create godoc
// @Summary Create a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param request body handler.departmentRequest true "Name and code"
// @Success 201 {object} domain.DepartmentDTO "Created department"
// @Failure 409 {object} domain.APIError "Department code already exists"
// @Security BearerAuth
// @Router /departments [post]
func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	department, err := h.departmentService.Create(r.Context(), r, req.Name, req.Code)
	if err != nil {
		h.logger.Error("failed to create department", zap.Error(err), zap.String("code", req.Code))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, department)
}

// Update godoc
// @Summary Rename a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param request body handler.departmentRequest true "New name"
// @Success 200 {object} domain.DepartmentDTO "Updated department"
// @Security BearerAuth
// @Router /departments/{id} [put]
func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid department ID")
		return
	}

	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	department, err := h.departmentService.Update(r.Context(), r, id, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, department)
}

// Delete godoc
// @Summary Delete an empty department
// @Tags Departments
// @Param id path string true "Department ID"
// @Success 204 "Deleted"
// @Failure 409 {object} domain.APIError "Department still has members"
// @Security BearerAuth
// @Router /departments/{id} [delete]
func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid department ID")
		return
	}

	if err := h.departmentService.Delete(r.Context(), r, id); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
