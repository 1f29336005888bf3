package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
)

// AuditLogService handles audit logging operations
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Action     domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	EntityName string
	Detail     string
}

// Log creates an audit log entry from context and request.
// Audit failures are logged and swallowed; the business operation already
// happened and must not be reported as failed.
func (s *AuditLogService) Log(ctx context.Context, r *http.Request, entry LogEntry) {
	auditLog := &domain.AuditLog{
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		EntityName:  entry.EntityName,
		Detail:      entry.Detail,
		PerformedAt: time.Now().UTC(),
	}

	// Extract user info from context
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		userID := userCtx.UserID
		auditLog.UserID = &userID
		auditLog.Username = userCtx.Username
	}

	// Extract request info
	if r != nil {
		auditLog.IPAddress = s.getClientIP(r)
		auditLog.RequestID = r.Header.Get("X-Request-ID")
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
	}
}

// LogDocumentAction records a workflow or lifecycle action on a document
func (s *AuditLogService) LogDocumentAction(ctx context.Context, r *http.Request, action domain.AuditAction, docType domain.DocumentType, documentID uuid.UUID, title, detail string) {
	s.Log(ctx, r, LogEntry{
		Action:     action,
		EntityType: string(docType),
		EntityID:   &documentID,
		EntityName: title,
		Detail:     detail,
	})
}

// LogUserAction records an administrative action on a user account
func (s *AuditLogService) LogUserAction(ctx context.Context, r *http.Request, action domain.AuditAction, userID uuid.UUID, username, detail string) {
	s.Log(ctx, r, LogEntry{
		Action:     action,
		EntityType: "user",
		EntityID:   &userID,
		EntityName: username,
		Detail:     detail,
	})
}

// LogLogin records a successful login
func (s *AuditLogService) LogLogin(ctx context.Context, r *http.Request, userID uuid.UUID, username string) {
	s.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionLogin,
		EntityType: "user",
		EntityID:   &userID,
		EntityName: username,
	})
}

// AuditLogQueryParams represents query parameters for listing audit logs
type AuditLogQueryParams struct {
	UserID     *uuid.UUID
	Action     *domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	StartTime  *time.Time
	EndTime    *time.Time
	Page       int
	PageSize   int
}

// List retrieves audit logs with filters
func (s *AuditLogService) List(ctx context.Context, params AuditLogQueryParams) ([]domain.AuditLog, int64, error) {
	filter := &repository.AuditLogFilter{
		UserID:     params.UserID,
		Action:     params.Action,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		StartTime:  params.StartTime,
		EndTime:    params.EndTime,
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	return s.auditRepo.List(ctx, filter, page, pageSize)
}

// GetByID retrieves a specific audit log entry
func (s *AuditLogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error) {
	return s.auditRepo.GetByID(ctx, id)
}

// GetByEntity retrieves audit logs for a specific entity
func (s *AuditLogService) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	return s.auditRepo.ListByEntity(ctx, entityType, entityID, limit)
}

// GetByUser retrieves audit logs for a specific user's actions
func (s *AuditLogService) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	return s.auditRepo.ListByUser(ctx, userID, limit)
}

// GetStats returns audit log statistics for a time range
func (s *AuditLogService) GetStats(ctx context.Context, start, end time.Time) (map[domain.AuditAction]int64, error) {
	return s.auditRepo.CountByAction(ctx, start, end)
}

// CleanupOldLogs removes logs older than the specified retention period
func (s *AuditLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	before := time.Now().AddDate(0, 0, -retentionDays)
	count, err := s.auditRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		s.logger.Error("failed to cleanup old audit logs",
			zap.Int("retention_days", retentionDays),
			zap.Error(err))
		return 0, err
	}

	if count > 0 {
		s.logger.Info("cleaned up old audit logs",
			zap.Int64("deleted_count", count),
			zap.Int("retention_days", retentionDays))
	}

	return count, nil
}

// getClientIP extracts the client IP from the request
func (s *AuditLogService) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (remove port)
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
