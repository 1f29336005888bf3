package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Department").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Department").
		First(&user, "username = ?", username).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Department").
		First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id).Error
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int, departmentID *uuid.UUID, activeOnly bool) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.User{}).
		Preload("Roles").
		Preload("Department")

	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("username ASC").Find(&users).Error

	return users, total, err
}

// ReplaceRoles replaces a user's role assignments with the given set
func (r *UserRepository) ReplaceRoles(ctx context.Context, user *domain.User, roles []domain.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles)
}

// CountActiveAdmins counts active users holding the admin role, optionally
// excluding one user. The last-admin guard is built on this.
func (r *UserRepository) CountActiveAdmins(ctx context.Context, excludeUserID *uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ? AND users.is_active = ?", domain.RoleAdmin, true)
	if excludeUserID != nil {
		query = query.Where("users.id != ?", *excludeUserID)
	}
	err := query.Distinct("users.id").Count(&count).Error
	return count, err
}

// ListByRoleAndDepartment returns active users holding a role, optionally
// narrowed to a department. Used to resolve notification recipients.
func (r *UserRepository) ListByRoleAndDepartment(ctx context.Context, role domain.RoleType, departmentID *uuid.UUID) ([]domain.User, error) {
	var users []domain.User
	query := r.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ? AND users.is_active = ?", role, true)
	if departmentID != nil {
		query = query.Where("users.department_id = ?", *departmentID)
	}
	err := query.Find(&users).Error
	return users, err
}

// PermissionsForUser resolves the effective permission set an active user
// holds through their role assignments. Deactivated accounts resolve to
// an error.
func (r *UserRepository) PermissionsForUser(ctx context.Context, userID uuid.UUID) ([]domain.PermissionType, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.New("user is deactivated")
	}

	seen := make(map[domain.PermissionType]struct{})
	perms := make([]domain.PermissionType, 0)
	for _, role := range user.Roles {
		for _, p := range role.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			perms = append(perms, p.Name)
		}
	}
	return perms, nil
}

// UpdateLastLogin stamps the user's last successful login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}
