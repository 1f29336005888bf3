package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkflowService drives documents through the approval state machine:
// Draft -> Submitted -> Approved | Rejected, with Rejected -> Submitted
// on resubmission. Each transition runs in a transaction holding a row
// lock on the document, so two concurrent decisions on the same document
// cannot both succeed.
type WorkflowService struct {
	db             *gorm.DB
	docRepo        *repository.DocumentRepository
	attachmentRepo *repository.AttachmentRepository
	historyRepo    *repository.ApprovalHistoryRepository
	userRepo       *repository.UserRepository
	notifyService  *NotificationService
	auditService   *AuditLogService
	logger         *zap.Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	db *gorm.DB,
	docRepo *repository.DocumentRepository,
	attachmentRepo *repository.AttachmentRepository,
	historyRepo *repository.ApprovalHistoryRepository,
	userRepo *repository.UserRepository,
	notifyService *NotificationService,
	auditService *AuditLogService,
	logger *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		db:             db,
		docRepo:        docRepo,
		attachmentRepo: attachmentRepo,
		historyRepo:    historyRepo,
		userRepo:       userRepo,
		notifyService:  notifyService,
		auditService:   auditService,
		logger:         logger,
	}
}

// Submit moves a draft or rejected document into Submitted. The creator
// may submit, as may holders of the edit-all grant; the document must
// carry at least one attachment: approvers decide on the attached
// artifact, not on metadata alone.
func (s *WorkflowService) Submit(ctx context.Context, r *http.Request, docType domain.DocumentType, id uuid.UUID) (*domain.DocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.HasPermission(domain.PermissionDocumentSubmit) {
		return nil, ErrPermissionDenied
	}

	var doc *domain.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = s.docRepo.GetByIDForUpdate(tx, docType, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load document: %w", err)
		}

		if doc.CreatedByID != userCtx.UserID && !userCtx.HasPermission(domain.PermissionDocumentEditAll) {
			return ErrPermissionDenied
		}
		if doc.Status != domain.StatusDraft && doc.Status != domain.StatusRejected {
			return fmt.Errorf("%w: cannot submit a document in status %s", ErrInvalidState, doc.Status)
		}

		count, err := s.attachmentRepo.CountByDocumentTx(tx, docType, id)
		if err != nil {
			return fmt.Errorf("failed to count attachments: %w", err)
		}
		if count == 0 {
			return ErrAttachmentRequired
		}

		// Earlier rejection remarks stay on the record through a resubmission
		doc.Status = domain.StatusSubmitted
		if err := s.docRepo.UpdateTx(tx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		return s.historyRepo.CreateTx(tx, &domain.ApprovalHistory{
			DocType:      docType,
			DocumentID:   id,
			Action:       domain.ActionSubmitted,
			ApprovedByID: userCtx.UserID,
			ApprovedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document submitted",
		zap.String("docType", string(docType)),
		zap.String("documentID", id.String()),
		zap.String("reference", doc.ReferenceNumber),
		zap.String("submittedBy", userCtx.UserID.String()),
	)

	s.auditService.LogDocumentAction(ctx, r, domain.AuditActionSubmit, docType, id, doc.Title,
		fmt.Sprintf("Document %s submitted for approval", doc.ReferenceNumber))

	s.notifyDepartmentHeads(ctx, doc,
		domain.NotificationTypeDocumentSubmitted,
		"Document submitted for approval",
		fmt.Sprintf("%s (%s) is awaiting your approval", doc.Title, doc.ReferenceNumber))

	return s.reload(ctx, docType, id)
}

// Approve moves a submitted document into Approved and freezes its
// attachments. The approver must be a department head of the document's
// department; creators cannot approve their own submissions even then.
func (s *WorkflowService) Approve(ctx context.Context, r *http.Request, docType domain.DocumentType, id uuid.UUID, req *domain.ApproveDocumentRequest) (*domain.DocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.HasPermission(domain.PermissionDocumentApprove) {
		return nil, ErrPermissionDenied
	}

	comments := ""
	if req != nil {
		comments = req.Comments
	}

	var doc *domain.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = s.docRepo.GetByIDForUpdate(tx, docType, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load document: %w", err)
		}

		if err := s.checkDecisionRights(userCtx, doc); err != nil {
			return err
		}
		if doc.Status != domain.StatusSubmitted {
			return fmt.Errorf("%w: cannot approve a document in status %s", ErrInvalidState, doc.Status)
		}

		doc.Status = domain.StatusApproved
		if err := s.docRepo.UpdateTx(tx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		// Approved documents are the record of the decision; their
		// attachments become read-only.
		if err := s.attachmentRepo.MarkReadonlyTx(tx, docType, id); err != nil {
			return fmt.Errorf("failed to freeze attachments: %w", err)
		}

		return s.historyRepo.CreateTx(tx, &domain.ApprovalHistory{
			DocType:      docType,
			DocumentID:   id,
			Action:       domain.ActionApproved,
			ApprovedByID: userCtx.UserID,
			Comments:     comments,
			ApprovedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document approved",
		zap.String("docType", string(docType)),
		zap.String("documentID", id.String()),
		zap.String("reference", doc.ReferenceNumber),
		zap.String("approvedBy", userCtx.UserID.String()),
	)

	s.auditService.LogDocumentAction(ctx, r, domain.AuditActionApprove, docType, id, doc.Title,
		fmt.Sprintf("Document %s approved", doc.ReferenceNumber))

	if err := s.notifyService.NotifyUser(ctx, doc.CreatedByID,
		domain.NotificationTypeDocumentApproved,
		"Document approved",
		fmt.Sprintf("%s (%s) has been approved", doc.Title, doc.ReferenceNumber),
		docType, &id); err != nil {
		s.logger.Warn("failed to notify document creator", zap.Error(err))
	}

	return s.reload(ctx, docType, id)
}

// Reject moves a submitted document into Rejected. Comments are required:
// the creator needs to know what to fix before resubmitting.
func (s *WorkflowService) Reject(ctx context.Context, r *http.Request, docType domain.DocumentType, id uuid.UUID, req *domain.RejectDocumentRequest) (*domain.DocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.HasPermission(domain.PermissionDocumentReject) {
		return nil, ErrPermissionDenied
	}
	if req == nil || req.Comments == "" {
		return nil, fmt.Errorf("%w: rejection comments are required", ErrInvalidInput)
	}

	var doc *domain.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = s.docRepo.GetByIDForUpdate(tx, docType, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load document: %w", err)
		}

		if err := s.checkDecisionRights(userCtx, doc); err != nil {
			return err
		}
		if doc.Status != domain.StatusSubmitted {
			return fmt.Errorf("%w: cannot reject a document in status %s", ErrInvalidState, doc.Status)
		}

		doc.Status = domain.StatusRejected
		doc.RejectedRemarks = req.Comments
		if err := s.docRepo.UpdateTx(tx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		return s.historyRepo.CreateTx(tx, &domain.ApprovalHistory{
			DocType:      docType,
			DocumentID:   id,
			Action:       domain.ActionRejected,
			ApprovedByID: userCtx.UserID,
			Comments:     req.Comments,
			ApprovedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document rejected",
		zap.String("docType", string(docType)),
		zap.String("documentID", id.String()),
		zap.String("reference", doc.ReferenceNumber),
		zap.String("rejectedBy", userCtx.UserID.String()),
	)

	s.auditService.LogDocumentAction(ctx, r, domain.AuditActionReject, docType, id, doc.Title,
		fmt.Sprintf("Document %s rejected", doc.ReferenceNumber))

	if err := s.notifyService.NotifyUser(ctx, doc.CreatedByID,
		domain.NotificationTypeDocumentRejected,
		"Document rejected",
		fmt.Sprintf("%s (%s) was rejected: %s", doc.Title, doc.ReferenceNumber, req.Comments),
		docType, &id); err != nil {
		s.logger.Warn("failed to notify document creator", zap.Error(err))
	}

	return s.reload(ctx, docType, id)
}

// checkDecisionRights verifies the user may approve or reject the given
// document: an admin, or a department head of the document's department.
func (s *WorkflowService) checkDecisionRights(userCtx *auth.UserContext, doc *domain.Document) error {
	if userCtx.IsAdmin() {
		return nil
	}
	if !userCtx.IsHOD() {
		return ErrPermissionDenied
	}
	if !userCtx.SameDepartment(doc.DepartmentID) {
		return fmt.Errorf("%w: document belongs to another department", ErrPermissionDenied)
	}
	return nil
}

// notifyDepartmentHeads fans a notification out to the HODs of the
// document's department. Best-effort: lookup or insert failures are
// logged and the transition stands.
func (s *WorkflowService) notifyDepartmentHeads(ctx context.Context, doc *domain.Document, notificationType domain.NotificationType, title, message string) {
	if doc.DepartmentID == nil {
		s.logger.Warn("document has no department, skipping approver notification",
			zap.String("documentID", doc.ID.String()))
		return
	}

	hods, err := s.userRepo.ListByRoleAndDepartment(ctx, domain.RoleHOD, doc.DepartmentID)
	if err != nil {
		s.logger.Warn("failed to look up department heads",
			zap.String("departmentID", doc.DepartmentID.String()),
			zap.Error(err))
		return
	}

	recipients := make([]uuid.UUID, 0, len(hods))
	for _, hod := range hods {
		if hod.ID == doc.CreatedByID {
			continue
		}
		recipients = append(recipients, hod.ID)
	}

	s.notifyService.NotifyUsers(ctx, recipients, notificationType, title, message, doc.DocType, &doc.ID)
}

func (s *WorkflowService) reload(ctx context.Context, docType domain.DocumentType, id uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.docRepo.GetByID(ctx, docType, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload document: %w", err)
	}

	count, err := s.attachmentRepo.CountByDocument(ctx, docType, id)
	if err != nil {
		s.logger.Warn("failed to count attachments", zap.Error(err))
	}

	dto := mapper.ToDocumentDTO(doc, int(count))
	return &dto, nil
}
