package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log endpoints
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Param userId query string false "Filter by acting user"
// @Param action query string false "Filter by action" Enums(create, update, delete, submit, approve, reject, login)
// @Param entityType query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity ID"
// @Param startTime query string false "RFC 3339 lower bound"
// @Param endTime query string false "RFC 3339 upper bound"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 200)"
// @Success 200 {object} domain.PaginatedResponse "Audit entries"
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	params := service.AuditLogQueryParams{
		EntityType: r.URL.Query().Get("entityType"),
	}

	if param := r.URL.Query().Get("userId"); param != "" {
		id, err := uuid.Parse(param)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		params.UserID = &id
	}
	if param := r.URL.Query().Get("entityId"); param != "" {
		id, err := uuid.Parse(param)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid entity ID")
			return
		}
		params.EntityID = &id
	}
	if param := r.URL.Query().Get("action"); param != "" {
		action := domain.AuditAction(param)
		params.Action = &action
	}
	if param := r.URL.Query().Get("startTime"); param != "" {
		t, err := time.Parse(time.RFC3339, param)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid startTime, expected RFC 3339")
			return
		}
		params.StartTime = &t
	}
	if param := r.URL.Query().Get("endTime"); param != "" {
		t, err := time.Parse(time.RFC3339, param)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid endTime, expected RFC 3339")
			return
		}
		params.EndTime = &t
	}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))

	logs, total, err := h.auditService.List(r.Context(), params)
	if err != nil {
		h.logger.Error("failed to list audit logs", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// GetByEntity godoc
// @Summary Get audit entries for one entity
// @Tags Audit
// @Produce json
// @Param entityType path string true "Entity type"
// @Param entityId path string true "Entity ID"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {array} domain.AuditLogDTO "Audit entries"
// @Security BearerAuth
// @Router /audit-logs/{entityType}/{entityId} [get]
func (h *AuditHandler) GetByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID, err := uuid.Parse(chi.URLParam(r, "entityId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, err := h.auditService.GetByEntity(r.Context(), entityType, entityID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}

	respondJSON(w, http.StatusOK, dtos)
}

// Stats godoc
// @Summary Get audit action counts for a time range
// @Tags Audit
// @Produce json
// @Param startTime query string false "RFC 3339 lower bound (default 30 days ago)"
// @Param endTime query string false "RFC 3339 upper bound (default now)"
// @Success 200 {object} map[string]int64 "Counts per action"
// @Security BearerAuth
// @Router /audit-logs/stats [get]
func (h *AuditHandler) Stats(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if param := r.URL.Query().Get("startTime"); param != "" {
		t, err := time.Parse(time.RFC3339, param)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid startTime, expected RFC 3339")
			return
		}
		start = t
	}
	if param := r.URL.Query().Get("endTime"); param != "" {
		t, err := time.Parse(time.RFC3339, param)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid endTime, expected RFC 3339")
			return
		}
		end = t
	}

	stats, err := h.auditService.GetStats(r.Context(), start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
