package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := r.db.WithContext(ctx).
		Preload("UploadedBy").
		First(&attachment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *AttachmentRepository) ListByDocument(ctx context.Context, docType domain.DocumentType, documentID uuid.UUID) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.WithContext(ctx).
		Preload("UploadedBy").
		Where("doc_type = ? AND document_id = ?", docType, documentID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Attachment{}, "id = ?", id).Error
}

// CountByDocument counts attachments on a document. Submission requires
// at least one.
func (r *AttachmentRepository) CountByDocument(ctx context.Context, docType domain.DocumentType, documentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Attachment{}).
		Where("doc_type = ? AND document_id = ?", docType, documentID).
		Count(&count).Error
	return count, err
}

// CountByDocumentTx is CountByDocument inside an existing transaction, so the
// attachment-required check holds at submit time.
func (r *AttachmentRepository) CountByDocumentTx(tx *gorm.DB, docType domain.DocumentType, documentID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&domain.Attachment{}).
		Where("doc_type = ? AND document_id = ?", docType, documentID).
		Count(&count).Error
	return count, err
}

// MarkReadonlyTx flags all of a document's attachments readonly, called when
// the document is approved so evidence cannot be swapped afterwards.
func (r *AttachmentRepository) MarkReadonlyTx(tx *gorm.DB, docType domain.DocumentType, documentID uuid.UUID) error {
	return tx.Model(&domain.Attachment{}).
		Where("doc_type = ? AND document_id = ?", docType, documentID).
		Update("is_readonly", true).Error
}
