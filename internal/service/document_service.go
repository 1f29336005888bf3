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
	"github.com/kspl/approval-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService handles the document lifecycle outside the approval
// workflow: creation, editing while editable, deletion of drafts, and
// role-scoped reads. Workflow transitions live in WorkflowService.
type DocumentService struct {
	db             *gorm.DB
	docRepo        *repository.DocumentRepository
	attachmentRepo *repository.AttachmentRepository
	historyRepo    *repository.ApprovalHistoryRepository
	refService     *ReferenceService
	auditService   *AuditLogService
	storage        storage.Storage
	logger         *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	db *gorm.DB,
	docRepo *repository.DocumentRepository,
	attachmentRepo *repository.AttachmentRepository,
	historyRepo *repository.ApprovalHistoryRepository,
	refService *ReferenceService,
	auditService *AuditLogService,
	store storage.Storage,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		db:             db,
		docRepo:        docRepo,
		attachmentRepo: attachmentRepo,
		historyRepo:    historyRepo,
		refService:     refService,
		auditService:   auditService,
		storage:        store,
		logger:         logger,
	}
}

// ScopeFor builds the repository visibility scope for a user
func ScopeFor(userCtx *auth.UserContext) repository.DocumentScope {
	return repository.DocumentScope{
		UserID:       userCtx.UserID,
		DepartmentID: userCtx.DepartmentID,
		IsAdmin:      userCtx.IsAdmin(),
		IsHOD:        userCtx.IsHOD(),
	}
}

// canView decides whether a user may read a single document. Admins may
// open any document (they can edit everything); list scoping still narrows
// their overviews to approved documents.
func canView(userCtx *auth.UserContext, doc *domain.Document) bool {
	if userCtx.IsAdmin() {
		return true
	}
	if doc.CreatedByID == userCtx.UserID {
		return true
	}
	if userCtx.IsHOD() && userCtx.SameDepartment(doc.DepartmentID) {
		return doc.Status == domain.StatusSubmitted || doc.Status == domain.StatusApproved
	}
	return false
}

// canEdit decides whether a user may modify a document. Admins may edit
// regardless of status; owners only while the document is editable.
func canEdit(userCtx *auth.UserContext, doc *domain.Document) error {
	if userCtx.IsAdmin() {
		return nil
	}
	if doc.CreatedByID != userCtx.UserID {
		return ErrPermissionDenied
	}
	if !doc.Status.IsEditable() {
		return ErrImmutableDocument
	}
	return nil
}

// Create creates a new document in draft status. The reference number is
// generated unless the caller supplies one, in which case uniqueness within
// the document type is enforced.
func (s *DocumentService) Create(ctx context.Context, r *http.Request, docType domain.DocumentType, req *domain.CreateDocumentRequest) (*domain.DocumentDTO, error) {
	if !docType.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, docType)
	}

	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.HasPermission(domain.PermissionDocumentCreate) {
		return nil, ErrPermissionDenied
	}

	doc := &domain.Document{
		DocType:     docType,
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.StatusDraft,
		CreatedByID: userCtx.UserID,
	}

	// Documents belong to the creator's department; admins may file into
	// another department explicitly.
	doc.DepartmentID = userCtx.DepartmentID
	if req.DepartmentID != nil && userCtx.IsAdmin() {
		doc.DepartmentID = req.DepartmentID
	}

	if err := s.applyTypeFields(doc, docType, req); err != nil {
		return nil, err
	}

	if req.ReferenceNumber != "" {
		exists, err := s.docRepo.ExistsByReference(ctx, docType, req.ReferenceNumber, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to check reference number: %w", err)
		}
		if exists {
			return nil, ErrDuplicateReference
		}
		doc.ReferenceNumber = req.ReferenceNumber
		if err := s.docRepo.Create(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to create document: %w", err)
		}
	} else {
		// Number allocation and insert share a transaction so a failed
		// insert rolls the counter back.
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ref, err := s.refService.GenerateTx(tx, docType)
			if err != nil {
				return err
			}
			doc.ReferenceNumber = ref
			return s.docRepo.CreateTx(tx, doc)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create document: %w", err)
		}
	}

	s.logger.Info("document created",
		zap.String("docType", string(docType)),
		zap.String("documentID", doc.ID.String()),
		zap.String("reference", doc.ReferenceNumber),
		zap.String("createdBy", userCtx.UserID.String()),
	)

	s.auditService.LogDocumentAction(ctx, r, domain.AuditActionCreate, docType, doc.ID, doc.Title,
		fmt.Sprintf("Document %s created", doc.ReferenceNumber))

	// Reload with relations
	doc, err := s.docRepo.GetByID(ctx, docType, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload document: %w", err)
	}

	dto := mapper.ToDocumentDTO(doc, 0)
	return &dto, nil
}

// GetByID returns a single document the user is allowed to see
func (s *DocumentService) GetByID(ctx context.Context, docType domain.DocumentType, id uuid.UUID) (*domain.DocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	doc, err := s.docRepo.GetByID(ctx, docType, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if !canView(userCtx, doc) {
		return nil, ErrPermissionDenied
	}

	count, err := s.attachmentRepo.CountByDocument(ctx, docType, id)
	if err != nil {
		s.logger.Warn("failed to count attachments", zap.Error(err))
	}

	dto := mapper.ToDocumentDTO(doc, int(count))
	return &dto, nil
}

// Update modifies an editable document. The reference number and status
// cannot be changed here; status moves only through the workflow.
func (s *DocumentService) Update(ctx context.Context, r *http.Request, docType domain.DocumentType, id uuid.UUID, req *domain.UpdateDocumentRequest) (*domain.DocumentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	doc, err := s.docRepo.GetByID(ctx, docType, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if err := canEdit(userCtx, doc); err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if err := s.applyTypeFieldUpdates(doc, docType, req); err != nil {
		return nil, err
	}

	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	s.auditService.LogDocumentAction(ctx, r, domain.AuditActionUpdate, docType, doc.ID, doc.Title,
		fmt.Sprintf("Document %s updated", doc.ReferenceNumber))

	// Reload with relations
	doc, err = s.docRepo.GetByID(ctx, docType, id)
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

// Delete removes a document along with its attachments. Approved documents
// are part of the permanent approval record: only admins may remove them.
func (s *DocumentService) Delete(ctx context.Context, r *http.Request, docType domain.DocumentType, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	doc, err := s.docRepo.GetByID(ctx, docType, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	if doc.CreatedByID != userCtx.UserID && !userCtx.IsAdmin() {
		return ErrPermissionDenied
	}
	if doc.Status == domain.StatusApproved && !userCtx.IsAdmin() {
		return ErrImmutableDocument
	}

	attachments, err := s.attachmentRepo.ListByDocument(ctx, docType, id)
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}

	if err := s.docRepo.Delete(ctx, docType, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	// Remove attachment rows and blobs; blob cleanup is best-effort
	for _, attachment := range attachments {
		if err := s.attachmentRepo.Delete(ctx, attachment.ID); err != nil {
			s.logger.Warn("failed to delete attachment record",
				zap.String("attachmentID", attachment.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.storage.Delete(ctx, attachment.StoragePath); err != nil {
			s.logger.Warn("failed to delete attachment blob",
				zap.String("storagePath", attachment.StoragePath),
				zap.Error(err))
		}
	}

	s.logger.Info("document deleted",
		zap.String("docType", string(docType)),
		zap.String("documentID", id.String()),
		zap.String("reference", doc.ReferenceNumber),
	)

	s.auditService.LogDocumentAction(ctx, r, domain.AuditActionDelete, docType, id, doc.Title,
		fmt.Sprintf("Document %s deleted", doc.ReferenceNumber))

	return nil
}

// List returns documents of one type visible to the current user
func (s *DocumentService) List(ctx context.Context, docType domain.DocumentType, filter *domain.DocumentListFilter) (*domain.PaginatedResponse, error) {
	if !docType.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, docType)
	}

	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if filter == nil {
		filter = &domain.DocumentListFilter{}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	docs, total, err := s.docRepo.List(ctx, docType, ScopeFor(userCtx), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	dtos := make([]domain.DocumentDTO, len(docs))
	for i := range docs {
		count, err := s.attachmentRepo.CountByDocument(ctx, docType, docs[i].ID)
		if err != nil {
			s.logger.Warn("failed to count attachments", zap.Error(err))
		}
		dtos[i] = mapper.ToDocumentDTO(&docs[i], int(count))
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetHistory returns the approval ledger for a document the user may see
func (s *DocumentService) GetHistory(ctx context.Context, docType domain.DocumentType, id uuid.UUID) ([]domain.ApprovalHistoryDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	doc, err := s.docRepo.GetByID(ctx, docType, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if !canView(userCtx, doc) {
		return nil, ErrPermissionDenied
	}

	entries, err := s.historyRepo.ListByDocument(ctx, docType, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}

	dtos := make([]domain.ApprovalHistoryDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToApprovalHistoryDTO(&entries[i])
	}
	return dtos, nil
}

// parseDate parses an ISO date (YYYY-MM-DD) from a request field
func parseDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", ErrInvalidInput, field)
	}
	return &t, nil
}

// applyTypeFields copies the request fields belonging to the document
// type onto a new document; fields for other types are ignored.
func (s *DocumentService) applyTypeFields(doc *domain.Document, docType domain.DocumentType, req *domain.CreateDocumentRequest) error {
	var err error
	switch docType {
	case domain.DocTypeNFA:
		doc.Amount = req.Amount
		doc.Notes = req.Notes
		if doc.ApprovalDate, err = parseDate(req.ApprovalDate, "approvalDate"); err != nil {
			return err
		}
	case domain.DocTypeWorkOrder:
		doc.PONumber = req.PONumber
		doc.VendorName = req.VendorName
		doc.Amount = req.Amount
		if doc.StartDate, err = parseDate(req.StartDate, "startDate"); err != nil {
			return err
		}
		if doc.EndDate, err = parseDate(req.EndDate, "endDate"); err != nil {
			return err
		}
	case domain.DocTypeCostContract, domain.DocTypeRevenueContract:
		doc.ContractType = req.ContractType
		doc.ContractValue = req.ContractValue
		doc.CustomerName = req.CustomerName
		doc.VendorName = req.VendorName
		doc.Terms = req.Terms
		if doc.StartDate, err = parseDate(req.StartDate, "startDate"); err != nil {
			return err
		}
		if doc.EndDate, err = parseDate(req.EndDate, "endDate"); err != nil {
			return err
		}
	case domain.DocTypeAgreement:
		doc.AgreementType = req.AgreementType
		doc.PartyName = req.PartyName
		doc.Terms = req.Terms
		if doc.EffectiveDate, err = parseDate(req.EffectiveDate, "effectiveDate"); err != nil {
			return err
		}
		if doc.ExpiryDate, err = parseDate(req.ExpiryDate, "expiryDate"); err != nil {
			return err
		}
	case domain.DocTypeStatutoryDocument:
		doc.StatutoryType = req.StatutoryType
		doc.RegulatoryBody = req.RegulatoryBody
		doc.Notes = req.Notes
		if doc.DueDate, err = parseDate(req.DueDate, "dueDate"); err != nil {
			return err
		}
	}
	return nil
}

// applyTypeFieldUpdates applies partial updates for the document's type
func (s *DocumentService) applyTypeFieldUpdates(doc *domain.Document, docType domain.DocumentType, req *domain.UpdateDocumentRequest) error {
	setDate := func(target **time.Time, value *string, field string) error {
		if value == nil {
			return nil
		}
		t, err := parseDate(value, field)
		if err != nil {
			return err
		}
		*target = t
		return nil
	}

	switch docType {
	case domain.DocTypeNFA:
		if req.Amount != nil {
			doc.Amount = req.Amount
		}
		if req.Notes != nil {
			doc.Notes = *req.Notes
		}
		if err := setDate(&doc.ApprovalDate, req.ApprovalDate, "approvalDate"); err != nil {
			return err
		}
	case domain.DocTypeWorkOrder:
		if req.PONumber != nil {
			doc.PONumber = *req.PONumber
		}
		if req.VendorName != nil {
			doc.VendorName = *req.VendorName
		}
		if req.Amount != nil {
			doc.Amount = req.Amount
		}
		if err := setDate(&doc.StartDate, req.StartDate, "startDate"); err != nil {
			return err
		}
		if err := setDate(&doc.EndDate, req.EndDate, "endDate"); err != nil {
			return err
		}
	case domain.DocTypeCostContract, domain.DocTypeRevenueContract:
		if req.ContractType != nil {
			doc.ContractType = *req.ContractType
		}
		if req.ContractValue != nil {
			doc.ContractValue = req.ContractValue
		}
		if req.CustomerName != nil {
			doc.CustomerName = *req.CustomerName
		}
		if req.VendorName != nil {
			doc.VendorName = *req.VendorName
		}
		if req.Terms != nil {
			doc.Terms = *req.Terms
		}
		if err := setDate(&doc.StartDate, req.StartDate, "startDate"); err != nil {
			return err
		}
		if err := setDate(&doc.EndDate, req.EndDate, "endDate"); err != nil {
			return err
		}
	case domain.DocTypeAgreement:
		if req.AgreementType != nil {
			doc.AgreementType = *req.AgreementType
		}
		if req.PartyName != nil {
			doc.PartyName = *req.PartyName
		}
		if req.Terms != nil {
			doc.Terms = *req.Terms
		}
		if err := setDate(&doc.EffectiveDate, req.EffectiveDate, "effectiveDate"); err != nil {
			return err
		}
		if err := setDate(&doc.ExpiryDate, req.ExpiryDate, "expiryDate"); err != nil {
			return err
		}
	case domain.DocTypeStatutoryDocument:
		if req.StatutoryType != nil {
			doc.StatutoryType = *req.StatutoryType
		}
		if req.RegulatoryBody != nil {
			doc.RegulatoryBody = *req.RegulatoryBody
		}
		if req.Notes != nil {
			doc.Notes = *req.Notes
		}
		if err := setDate(&doc.DueDate, req.DueDate, "dueDate"); err != nil {
			return err
		}
	}
	return nil
}
