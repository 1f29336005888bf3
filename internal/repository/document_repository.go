package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentScope captures who is asking, so list and read queries can apply
// role-based visibility in one place:
//   - admin: approved documents only (any department)
//   - hod:   submitted and approved documents in their department, plus
//     documents they created themselves
//   - emp:   only documents they created in their department
type DocumentScope struct {
	UserID       uuid.UUID
	DepartmentID *uuid.UUID
	IsAdmin      bool
	IsHOD        bool
}

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// CreateTx creates a document inside an existing transaction, so reference
// number allocation and the insert commit or roll back together.
func (r *DocumentRepository) CreateTx(tx *gorm.DB, doc *domain.Document) error {
	return tx.Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, docType domain.DocumentType, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("CreatedBy").
		Where("doc_type = ? AND id = ?", docType, id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByIDForUpdate re-reads a document under a row lock inside a transaction.
// Workflow transitions use this so the status check and the update are atomic.
func (r *DocumentRepository) GetByIDForUpdate(tx *gorm.DB, docType domain.DocumentType, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("doc_type = ? AND id = ?", docType, id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// UpdateTx saves a document inside an existing transaction
func (r *DocumentRepository) UpdateTx(tx *gorm.DB, doc *domain.Document) error {
	return tx.Save(doc).Error
}

func (r *DocumentRepository) Delete(ctx context.Context, docType domain.DocumentType, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("doc_type = ? AND id = ?", docType, id).
		Delete(&domain.Document{}).Error
}

// ExistsByReference reports whether a reference number is already taken
// within a document type.
func (r *DocumentRepository) ExistsByReference(ctx context.Context, docType domain.DocumentType, referenceNumber string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("doc_type = ? AND reference_number = ?", docType, referenceNumber)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// List returns documents of one type visible to the scope, with optional
// status filter and case-insensitive title search, newest first.
func (r *DocumentRepository) List(ctx context.Context, docType domain.DocumentType, scope DocumentScope, filter *domain.DocumentListFilter) ([]domain.Document, int64, error) {
	var docs []domain.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Document{}).
		Preload("Department").
		Preload("CreatedBy").
		Where("doc_type = ?", docType)

	query = applyScope(query, scope)

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Search != "" {
			pattern := "%" + strings.ToLower(filter.Search) + "%"
			query = query.Where("LOWER(title) LIKE ?", pattern)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := 1, 20
	if filter != nil {
		if filter.Page > 0 {
			page = filter.Page
		}
		if filter.PageSize > 0 {
			pageSize = filter.PageSize
		}
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&docs).Error

	return docs, total, err
}

// applyScope narrows a document query to what the scope may see
func applyScope(query *gorm.DB, scope DocumentScope) *gorm.DB {
	if scope.IsAdmin {
		return query.Where("status = ?", domain.StatusApproved)
	}
	if scope.IsHOD {
		// Heads of department review submitted and approved documents of
		// their own department; drafts stay private to their creators
		if scope.DepartmentID != nil {
			return query.Where(
				"status IN ? AND department_id = ?",
				[]domain.DocumentStatus{domain.StatusSubmitted, domain.StatusApproved},
				*scope.DepartmentID,
			)
		}
		return query.Where("1 = 0")
	}
	// Employees see their own documents within their current department
	if scope.DepartmentID != nil {
		return query.Where("created_by_id = ? AND department_id = ?", scope.UserID, *scope.DepartmentID)
	}
	return query.Where("created_by_id = ? AND department_id IS NULL", scope.UserID)
}

// CountByStatus returns counts per status for one document type within scope
func (r *DocumentRepository) CountByStatus(ctx context.Context, docType domain.DocumentType, scope DocumentScope) (map[domain.DocumentStatus]int64, error) {
	type row struct {
		Status domain.DocumentStatus
		Count  int64
	}

	var rows []row
	query := r.db.WithContext(ctx).Model(&domain.Document{}).
		Select("status, COUNT(*) as count").
		Where("doc_type = ?", docType)
	query = applyScope(query, scope)

	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.DocumentStatus]int64)
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// CountVisibleByType returns how many documents of each type the scope can see
func (r *DocumentRepository) CountVisibleByType(ctx context.Context, scope DocumentScope) (map[domain.DocumentType]int64, error) {
	type row struct {
		DocType domain.DocumentType
		Count   int64
	}

	var rows []row
	query := r.db.WithContext(ctx).Model(&domain.Document{}).
		Select("doc_type, COUNT(*) as count")
	query = applyScope(query, scope)

	if err := query.Group("doc_type").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.DocumentType]int64)
	for _, r := range rows {
		counts[r.DocType] = r.Count
	}
	return counts, nil
}

// CountPendingForDepartment counts submitted documents awaiting a decision
// in the given department, across all document types.
func (r *DocumentRepository) CountPendingForDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("status = ? AND department_id = ?", domain.StatusSubmitted, departmentID).
		Count(&count).Error
	return count, err
}

// CountMineByStatus counts a user's own documents in a given status
func (r *DocumentRepository) CountMineByStatus(ctx context.Context, userID uuid.UUID, status domain.DocumentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("created_by_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// ListDueSoon returns approved statutory documents whose due date falls
// within the window, for the reminder job.
func (r *DocumentRepository) ListDueSoon(ctx context.Context, docType domain.DocumentType, from, to time.Time) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("doc_type = ? AND status = ? AND due_date >= ? AND due_date <= ?",
			docType, domain.StatusApproved, from, to).
		Order("due_date ASC").
		Find(&docs).Error
	return docs, err
}
