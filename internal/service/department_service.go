package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/mapper"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrDepartmentInUse is returned when deleting a department that still has members
var ErrDepartmentInUse = errors.New("department still has members")

// DepartmentService manages departments
type DepartmentService struct {
	deptRepo     *repository.DepartmentRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

// NewDepartmentService creates a new DepartmentService
func NewDepartmentService(deptRepo *repository.DepartmentRepository, auditService *AuditLogService, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{
		deptRepo:     deptRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns all departments
func (s *DepartmentService) List(ctx context.Context) ([]domain.DepartmentDTO, error) {
	departments, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	dtos := make([]domain.DepartmentDTO, len(departments))
	for i := range departments {
		dtos[i] = mapper.ToDepartmentDTO(&departments[i])
	}
	return dtos, nil
}

// GetByID returns a department by ID
func (s *DepartmentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DepartmentDTO, error) {
	department, err := s.deptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}

	dto := mapper.ToDepartmentDTO(department)
	return &dto, nil
}

// Create creates a new department with a unique code
func (s *DepartmentService) Create(ctx context.Context, r *http.Request, name, code string) (*domain.DepartmentDTO, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if name == "" || code == "" {
		return nil, fmt.Errorf("%w: name and code are required", ErrInvalidInput)
	}

	if existing, err := s.deptRepo.GetByCode(ctx, code); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: department code already exists", ErrConflict)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check department code: %w", err)
	}

	department := &domain.Department{Name: name, Code: code}
	if err := s.deptRepo.Create(ctx, department); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	s.logger.Info("department created",
		zap.String("departmentID", department.ID.String()),
		zap.String("code", code),
	)

	s.auditService.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionCreate,
		EntityType: "department",
		EntityID:   &department.ID,
		EntityName: name,
		Detail:     fmt.Sprintf("Department %s (%s) created", name, code),
	})

	dto := mapper.ToDepartmentDTO(department)
	return &dto, nil
}

// Update renames a department
func (s *DepartmentService) Update(ctx context.Context, r *http.Request, id uuid.UUID, name string) (*domain.DepartmentDTO, error) {
	department, err := s.deptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	department.Name = name
	if err := s.deptRepo.Update(ctx, department); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}

	s.auditService.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionUpdate,
		EntityType: "department",
		EntityID:   &id,
		EntityName: name,
		Detail:     fmt.Sprintf("Department renamed to %s", name),
	})

	dto := mapper.ToDepartmentDTO(department)
	return &dto, nil
}

// Delete removes an empty department. Departments with members stay.
func (s *DepartmentService) Delete(ctx context.Context, r *http.Request, id uuid.UUID) error {
	department, err := s.deptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get department: %w", err)
	}

	count, err := s.deptRepo.CountUsers(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count department members: %w", err)
	}
	if count > 0 {
		return ErrDepartmentInUse
	}

	if err := s.deptRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	s.auditService.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionDelete,
		EntityType: "department",
		EntityID:   &id,
		EntityName: department.Name,
		Detail:     fmt.Sprintf("Department %s deleted", department.Name),
	})

	return nil
}
