package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		First(&role, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name domain.RoleType) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		First(&role, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetByNames loads multiple roles at once, preserving their permissions
func (r *RoleRepository) GetByNames(ctx context.Context, names []domain.RoleType) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("name IN ?", names).
		Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

// ReplacePermissions replaces the role's permission grants with the given set
func (r *RoleRepository) ReplacePermissions(ctx context.Context, role *domain.Role, permissions []domain.Permission) error {
	return r.db.WithContext(ctx).Model(role).Association("Permissions").Replace(permissions)
}

// GetPermissionsByNames loads permission rows for the given names
func (r *RoleRepository) GetPermissionsByNames(ctx context.Context, names []domain.PermissionType) ([]domain.Permission, error) {
	var permissions []domain.Permission
	err := r.db.WithContext(ctx).
		Where("name IN ?", names).
		Find(&permissions).Error
	return permissions, err
}

// ListPermissions returns all defined permissions
func (r *RoleRepository) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	var permissions []domain.Permission
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&permissions).Error
	return permissions, err
}
