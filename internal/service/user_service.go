package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/auth"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService handles user account administration. Every mutation that
// could remove an admin from play (role change, deactivation, deletion)
// checks that at least one active admin remains.
type UserService struct {
	userRepo     *repository.UserRepository
	roleRepo     *repository.RoleRepository
	deptRepo     *repository.DepartmentRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	deptRepo *repository.DepartmentRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		deptRepo:     deptRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// Create creates a new user account with the given roles
func (s *UserService) Create(ctx context.Context, r *http.Request, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	roles, err := s.resolveRoles(ctx, req.Roles)
	if err != nil {
		return nil, err
	}

	if req.DepartmentID != nil {
		if _, err := s.deptRepo.GetByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: department not found", ErrInvalidInput)
			}
			return nil, fmt.Errorf("failed to load department: %w", err)
		}
	}

	if existing, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: username already taken", ErrConflict)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := &domain.User{
		Username:     strings.ToLower(req.Username),
		Email:        strings.ToLower(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
		Roles:        roles,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		zap.String("userID", user.ID.String()),
		zap.String("username", user.Username),
	)

	s.auditService.LogUserAction(ctx, r, domain.AuditActionCreate, user.ID, user.Username,
		fmt.Sprintf("User %s created with roles %s", user.Username, roleNames(roles)))

	user, err = s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// GetByID returns a user by ID
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// GetCurrent returns the authenticated user's own profile
func (s *UserService) GetCurrent(ctx context.Context) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.GetByID(ctx, userCtx.UserID)
}

// List returns users with pagination and optional department filter
func (s *UserService) List(ctx context.Context, page, pageSize int, departmentID *uuid.UUID, activeOnly bool) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	users, total, err := s.userRepo.List(ctx, page, pageSize, departmentID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update modifies a user account. Removing the admin role from the last
// active admin is refused.
func (s *UserService) Update(ctx context.Context, r *http.Request, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil && existing.ID != id {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = email
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.DepartmentID != nil {
		if _, err := s.deptRepo.GetByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: department not found", ErrInvalidInput)
			}
			return nil, fmt.Errorf("failed to load department: %w", err)
		}
		user.DepartmentID = req.DepartmentID
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if req.Roles != nil {
		if err := s.changeRoles(ctx, user, req.Roles); err != nil {
			return nil, err
		}
	}

	s.auditService.LogUserAction(ctx, r, domain.AuditActionUpdate, user.ID, user.Username,
		fmt.Sprintf("User %s updated", user.Username))

	user, err = s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Deactivate disables a user account without deleting its history.
// The last active admin cannot be deactivated.
func (s *UserService) Deactivate(ctx context.Context, r *http.Request, id uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil
	}

	if user.HasRole(domain.RoleAdmin) {
		if err := s.ensureNotLastAdmin(ctx, id); err != nil {
			return err
		}
	}

	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.Info("user deactivated",
		zap.String("userID", id.String()),
		zap.String("username", user.Username),
	)

	s.auditService.LogUserAction(ctx, r, domain.AuditActionUpdate, id, user.Username,
		fmt.Sprintf("User %s deactivated", user.Username))

	return nil
}

// Activate re-enables a deactivated user account
func (s *UserService) Activate(ctx context.Context, r *http.Request, id uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsActive {
		return nil
	}

	user.IsActive = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	s.auditService.LogUserAction(ctx, r, domain.AuditActionUpdate, id, user.Username,
		fmt.Sprintf("User %s activated", user.Username))

	return nil
}

// Delete removes a user account. Documents and history keep their rows;
// only the account itself goes. The last active admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, r *http.Request, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if userCtx.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.HasRole(domain.RoleAdmin) {
		if err := s.ensureNotLastAdmin(ctx, id); err != nil {
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted",
		zap.String("userID", id.String()),
		zap.String("username", user.Username),
	)

	s.auditService.LogUserAction(ctx, r, domain.AuditActionDelete, id, user.Username,
		fmt.Sprintf("User %s deleted", user.Username))

	return nil
}

// changeRoles replaces a user's role set, guarding the last admin
func (s *UserService) changeRoles(ctx context.Context, user *domain.User, roleTypes []domain.RoleType) error {
	roles, err := s.resolveRoles(ctx, roleTypes)
	if err != nil {
		return err
	}

	losesAdmin := user.HasRole(domain.RoleAdmin)
	for _, role := range roles {
		if role.Name == domain.RoleAdmin {
			losesAdmin = false
		}
	}
	if losesAdmin {
		if err := s.ensureNotLastAdmin(ctx, user.ID); err != nil {
			return err
		}
	}

	if err := s.userRepo.ReplaceRoles(ctx, user, roles); err != nil {
		return fmt.Errorf("failed to replace roles: %w", err)
	}
	return nil
}

// ensureNotLastAdmin fails with ErrLastAdmin when no active admin would
// remain after removing the given user from the admin pool
func (s *UserService) ensureNotLastAdmin(ctx context.Context, excludeUserID uuid.UUID) error {
	count, err := s.userRepo.CountActiveAdmins(ctx, &excludeUserID)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count == 0 {
		return ErrLastAdmin
	}
	return nil
}

// resolveRoles loads role rows for the requested role types
func (s *UserService) resolveRoles(ctx context.Context, roleTypes []domain.RoleType) ([]domain.Role, error) {
	if len(roleTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", ErrInvalidInput)
	}
	for _, rt := range roleTypes {
		if !rt.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, rt)
		}
	}

	roles, err := s.roleRepo.GetByNames(ctx, roleTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	if len(roles) != len(roleTypes) {
		return nil, ErrRoleNotFound
	}
	return roles, nil
}

func roleNames(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role.Name)
	}
	return strings.Join(names, ", ")
}
