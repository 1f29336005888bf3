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

// WorkflowConfigHandler handles workflow configuration endpoints
type WorkflowConfigHandler struct {
	configService *service.WorkflowConfigService
	logger        *zap.Logger
}

// NewWorkflowConfigHandler creates a new WorkflowConfigHandler
func NewWorkflowConfigHandler(configService *service.WorkflowConfigService, logger *zap.Logger) *WorkflowConfigHandler {
	return &WorkflowConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// List godoc
// @Summary List workflow configurations
// @Tags Workflow Config
// @Produce json
// @Param module query string false "Filter by document type"
// @Success 200 {array} domain.WorkflowConfigDTO "Configurations"
// @Security BearerAuth
// @Router /workflow-configs [get]
func (h *WorkflowConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	var module *domain.DocumentType
	if param := r.URL.Query().Get("module"); param != "" {
		m := domain.DocumentType(param)
		module = &m
	}

	configs, err := h.configService.List(r.Context(), module)
	if err != nil {
		h.logger.Error("failed to list workflow configs", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

// Create godoc
// @Summary Create a workflow configuration
// @Tags Workflow Config
// @Accept json
// @Produce json
// @Param request body domain.CreateWorkflowConfigRequest true "Configuration with steps"
// @Success 201 {object} domain.WorkflowConfigDTO "Created configuration"
// @Security BearerAuth
// @Router /workflow-configs [post]
func (h *WorkflowConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWorkflowConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	cfg, err := h.configService.Create(r.Context(), r, &req)
	if err != nil {
		h.logger.Error("failed to create workflow config", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cfg)
}

// Get godoc
// @Summary Get a workflow configuration
// @Tags Workflow Config
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} domain.WorkflowConfigDTO "Configuration"
// @Failure 404 {object} domain.APIError "Configuration not found"
// @Security BearerAuth
// @Router /workflow-configs/{id} [get]
func (h *WorkflowConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid configuration ID")
		return
	}

	cfg, err := h.configService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// Update godoc
// @Summary Update a workflow configuration
// @Tags Workflow Config
// @Accept json
// @Produce json
// @Param id path string true "Configuration ID"
// @Param request body domain.UpdateWorkflowConfigRequest true "Fields to change"
// @Success 200 {object} domain.WorkflowConfigDTO "Updated configuration"
// @Security BearerAuth
// @Router /workflow-configs/{id} [put]
func (h *WorkflowConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid configuration ID")
		return
	}

	var req domain.UpdateWorkflowConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	cfg, err := h.configService.Update(r.Context(), r, id, &req)
	if err != nil {
		h.logger.Error("failed to update workflow config", zap.Error(err), zap.String("config_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// Delete godoc
// @Summary Delete a workflow configuration
// @Tags Workflow Config
// @Param id path string true "Configuration ID"
// @Success 204 "Deleted"
// @Security BearerAuth
// @Router /workflow-configs/{id} [delete]
func (h *WorkflowConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid configuration ID")
		return
	}

	if err := h.configService.Delete(r.Context(), r, id); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
