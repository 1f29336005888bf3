package service

import (
	"context"
	"fmt"

	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
)

// DashboardService aggregates document counts for the landing page.
// All counts respect the caller's visibility scope.
type DashboardService struct {
	docRepo *repository.DocumentRepository
	logger  *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(docRepo *repository.DocumentRepository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		docRepo: docRepo,
		logger:  logger,
	}
}

// GetStats returns the dashboard counters for the current user
func (s *DashboardService) GetStats(ctx context.Context) (*domain.DashboardStatsDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	scope := ScopeFor(userCtx)

	countsByType, err := s.docRepo.CountVisibleByType(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents by type: %w", err)
	}

	countsByStatus := make(map[domain.DocumentStatus]int64)
	for _, docType := range domain.AllDocumentTypes() {
		perStatus, err := s.docRepo.CountByStatus(ctx, docType, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to count documents by status: %w", err)
		}
		for status, count := range perStatus {
			countsByStatus[status] += count
		}
	}

	stats := &domain.DashboardStatsDTO{
		CountsByType:   countsByType,
		CountsByStatus: countsByStatus,
	}

	// Approvers see how much is waiting on them
	if userCtx.IsHOD() && userCtx.DepartmentID != nil {
		pending, err := s.docRepo.CountPendingForDepartment(ctx, *userCtx.DepartmentID)
		if err != nil {
			s.logger.Warn("failed to count pending approvals", zap.Error(err))
		} else {
			stats.PendingApprovals = pending
		}
	}

	drafts, err := s.docRepo.CountMineByStatus(ctx, userCtx.UserID, domain.StatusDraft)
	if err != nil {
		s.logger.Warn("failed to count drafts", zap.Error(err))
	} else {
		stats.MyDrafts = drafts
	}

	rejected, err := s.docRepo.CountMineByStatus(ctx, userCtx.UserID, domain.StatusRejected)
	if err != nil {
		s.logger.Warn("failed to count rejected documents", zap.Error(err))
	} else {
		stats.MyRejected = rejected
	}

	return stats, nil
}
