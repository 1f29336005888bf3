package handler

import (
	"net/http"

	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Stats godoc
// @Summary Get dashboard counters for the current user
// @Description Returns document counts by type and status within the caller's visibility, plus personal counters.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardStatsDTO "Dashboard counters"
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load dashboard stats", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
