package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoleService manages the fixed role set and its permission grants.
// Roles themselves cannot be created or deleted; only their description
// and permission set can change.
type RoleService struct {
	roleRepo     *repository.RoleRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

// NewRoleService creates a new RoleService
func NewRoleService(roleRepo *repository.RoleRepository, auditService *AuditLogService, logger *zap.Logger) *RoleService {
	return &RoleService{
		roleRepo:     roleRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns all roles with their permissions
func (s *RoleService) List(ctx context.Context) ([]domain.RoleDTO, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	dtos := make([]domain.RoleDTO, len(roles))
	for i := range roles {
		dtos[i] = mapper.ToRoleDTO(&roles[i])
	}
	return dtos, nil
}

// GetByID returns a role with its permissions
func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*domain.RoleDTO, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	dto := mapper.ToRoleDTO(role)
	return &dto, nil
}

// Update changes a role's description and/or permission set. Stripping
// the admin role of admin access would lock everyone out, so that grant
// is pinned.
func (s *RoleService) Update(ctx context.Context, r *http.Request, id uuid.UUID, req *domain.UpdateRoleRequest) (*domain.RoleDTO, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	if req.Description != nil {
		role.Description = *req.Description
		if err := s.roleRepo.Update(ctx, role); err != nil {
			return nil, fmt.Errorf("failed to update role: %w", err)
		}
	}

	if req.Permissions != nil {
		for _, p := range req.Permissions {
			if !p.IsValid() {
				return nil, fmt.Errorf("%w: %s", ErrInvalidPermission, p)
			}
		}

		permissionNames := req.Permissions
		if role.Name == domain.RoleAdmin && !containsPermission(permissionNames, domain.PermissionAdminAccess) {
			permissionNames = append(permissionNames, domain.PermissionAdminAccess)
		}

		permissions, err := s.roleRepo.GetPermissionsByNames(ctx, permissionNames)
		if err != nil {
			return nil, fmt.Errorf("failed to load permissions: %w", err)
		}
		if len(permissions) != len(permissionNames) {
			return nil, ErrInvalidPermission
		}

		if err := s.roleRepo.ReplacePermissions(ctx, role, permissions); err != nil {
			return nil, fmt.Errorf("failed to replace permissions: %w", err)
		}
	}

	s.logger.Info("role updated",
		zap.String("roleID", id.String()),
		zap.String("role", string(role.Name)),
	)

	s.auditService.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionUpdate,
		EntityType: "role",
		EntityID:   &id,
		EntityName: string(role.Name),
		Detail:     fmt.Sprintf("Role %s updated", role.Name),
	})

	role, err = s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload role: %w", err)
	}

	dto := mapper.ToRoleDTO(role)
	return &dto, nil
}

// ListPermissions returns the full permission catalogue
func (s *RoleService) ListPermissions(ctx context.Context) ([]domain.PermissionType, error) {
	permissions, err := s.roleRepo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	names := make([]domain.PermissionType, len(permissions))
	for i, p := range permissions {
		names[i] = p.Name
	}
	return names, nil
}

func containsPermission(permissions []domain.PermissionType, target domain.PermissionType) bool {
	for _, p := range permissions {
		if p == target {
			return true
		}
	}
	return false
}
