package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
)

// ApprovalHistoryRepository handles the append-only approval ledger.
// Entries are only ever created, never updated or deleted.
type ApprovalHistoryRepository struct {
	db *gorm.DB
}

func NewApprovalHistoryRepository(db *gorm.DB) *ApprovalHistoryRepository {
	return &ApprovalHistoryRepository{db: db}
}

func (r *ApprovalHistoryRepository) Create(ctx context.Context, entry *domain.ApprovalHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// CreateTx appends a ledger entry inside an existing transaction, so the
// entry and the status change it records commit together.
func (r *ApprovalHistoryRepository) CreateTx(tx *gorm.DB, entry *domain.ApprovalHistory) error {
	return tx.Create(entry).Error
}

// ListByDocument returns a document's full ledger, oldest first
func (r *ApprovalHistoryRepository) ListByDocument(ctx context.Context, docType domain.DocumentType, documentID uuid.UUID) ([]domain.ApprovalHistory, error) {
	var entries []domain.ApprovalHistory
	err := r.db.WithContext(ctx).
		Preload("ApprovedBy").
		Where("doc_type = ? AND document_id = ?", docType, documentID).
		Order("approved_at ASC").
		Find(&entries).Error
	return entries, err
}

// ListRecentByUser returns the latest ledger entries performed by a user
func (r *ApprovalHistoryRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ApprovalHistory, error) {
	var entries []domain.ApprovalHistory
	err := r.db.WithContext(ctx).
		Where("approved_by_id = ?", userID).
		Order("approved_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
