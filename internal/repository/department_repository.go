package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, department *domain.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	var department domain.Department
	err := r.db.WithContext(ctx).First(&department, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *DepartmentRepository) GetByCode(ctx context.Context, code string) (*domain.Department, error) {
	var department domain.Department
	err := r.db.WithContext(ctx).First(&department, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	var departments []domain.Department
	err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) Update(ctx context.Context, department *domain.Department) error {
	return r.db.WithContext(ctx).Save(department).Error
}

func (r *DepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Department{}, "id = ?", id).Error
}

// CountUsers counts users assigned to a department, for delete guards
func (r *DepartmentRepository) CountUsers(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("department_id = ?", id).
		Count(&count).Error
	return count, err
}
