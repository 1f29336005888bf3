package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/config"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit
var ErrFileTooLarge = errors.New("file exceeds maximum upload size")

// ErrUnsupportedFileType is returned for file extensions outside the allow list
var ErrUnsupportedFileType = errors.New("unsupported file type")

// allowedExtensions is the upload allow list. Office documents, PDFs and
// common image formats; executables and archives stay out.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".txt":  true,
	".csv":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// AttachmentService handles file uploads and downloads bound to documents.
// Attachments follow the document's lifecycle: they can be added or removed
// while the document is editable and are frozen once it is approved.
type AttachmentService struct {
	docRepo        *repository.DocumentRepository
	attachmentRepo *repository.AttachmentRepository
	storage        storage.Storage
	auditService   *AuditLogService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	docRepo *repository.DocumentRepository,
	attachmentRepo *repository.AttachmentRepository,
	store storage.Storage,
	auditService *AuditLogService,
	cfg *config.StorageConfig,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		docRepo:        docRepo,
		attachmentRepo: attachmentRepo,
		storage:        store,
		auditService:   auditService,
		maxUploadBytes: int64(cfg.MaxUploadSizeMB) * 1024 * 1024,
		logger:         logger,
	}
}

// MaxUploadBytes returns the configured upload size limit
func (s *AttachmentService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload stores a file and binds it to a document. The document must be
// editable by the caller; attachments cannot be added after approval.
func (s *AttachmentService) Upload(ctx context.Context, docType domain.DocumentType, documentID uuid.UUID, filename, contentType string, size int64, data io.Reader) (*domain.AttachmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	doc, err := s.docRepo.GetByID(ctx, docType, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if err := canEdit(userCtx, doc); err != nil {
		return nil, err
	}
	if doc.Status == domain.StatusApproved {
		return nil, ErrImmutableDocument
	}

	storagePath, written, err := s.storage.Upload(ctx, docType, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	attachment := &domain.Attachment{
		DocType:      docType,
		DocumentID:   documentID,
		Filename:     filename,
		ContentType:  contentType,
		Size:         written,
		StoragePath:  storagePath,
		UploadedByID: userCtx.UserID,
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		// Orphaned blob cleanup is best-effort
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up orphaned blob",
				zap.String("storagePath", storagePath),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	s.logger.Info("attachment uploaded",
		zap.String("attachmentID", attachment.ID.String()),
		zap.String("documentID", documentID.String()),
		zap.String("filename", filename),
		zap.Int64("size", written),
	)

	// Reload for the uploader relation
	attachment, err = s.attachmentRepo.GetByID(ctx, attachment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attachment: %w", err)
	}

	dto := mapper.ToAttachmentDTO(attachment)
	return &dto, nil
}

// List returns the attachments of a document the user may see
func (s *AttachmentService) List(ctx context.Context, docType domain.DocumentType, documentID uuid.UUID) ([]domain.AttachmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	doc, err := s.docRepo.GetByID(ctx, docType, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if !canView(userCtx, doc) {
		return nil, ErrPermissionDenied
	}

	attachments, err := s.attachmentRepo.ListByDocument(ctx, docType, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	dtos := make([]domain.AttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = mapper.ToAttachmentDTO(&attachments[i])
	}
	return dtos, nil
}

// DownloadResult carries a file stream and the metadata needed to serve it
type DownloadResult struct {
	Reader      io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Download opens an attachment's content for a user who may view its document
func (s *AttachmentService) Download(ctx context.Context, attachmentID uuid.UUID) (*DownloadResult, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load attachment: %w", err)
	}

	doc, err := s.docRepo.GetByID(ctx, attachment.DocType, attachment.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if !canView(userCtx, doc) {
		return nil, ErrPermissionDenied
	}

	reader, err := s.storage.Download(ctx, attachment.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &DownloadResult{
		Reader:      reader,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
	}, nil
}

// Delete removes an attachment while its document is still editable.
// Read-only attachments belong to an approved document and stay.
func (s *AttachmentService) Delete(ctx context.Context, attachmentID uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load attachment: %w", err)
	}

	if attachment.IsReadonly {
		return ErrImmutableDocument
	}

	doc, err := s.docRepo.GetByID(ctx, attachment.DocType, attachment.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load document: %w", err)
	}

	if err := canEdit(userCtx, doc); err != nil {
		return err
	}
	if doc.Status == domain.StatusApproved {
		return ErrImmutableDocument
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	if err := s.storage.Delete(ctx, attachment.StoragePath); err != nil {
		s.logger.Warn("failed to delete blob",
			zap.String("storagePath", attachment.StoragePath),
			zap.Error(err))
	}

	s.logger.Info("attachment deleted",
		zap.String("attachmentID", attachmentID.String()),
		zap.String("documentID", attachment.DocumentID.String()),
		zap.String("filename", attachment.Filename),
	)

	return nil
}
