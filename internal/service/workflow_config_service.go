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

// WorkflowConfigService manages per-module workflow definitions. These
// describe the intended approval chain per document type; the built-in
// single-step HOD flow runs regardless, and configurations feed future
// multi-step routing.
type WorkflowConfigService struct {
	configRepo   *repository.WorkflowConfigRepository
	roleRepo     *repository.RoleRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

// NewWorkflowConfigService creates a new WorkflowConfigService
func NewWorkflowConfigService(
	configRepo *repository.WorkflowConfigRepository,
	roleRepo *repository.RoleRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *WorkflowConfigService {
	return &WorkflowConfigService{
		configRepo:   configRepo,
		roleRepo:     roleRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// Create creates a workflow configuration with its steps
func (s *WorkflowConfigService) Create(ctx context.Context, r *http.Request, req *domain.CreateWorkflowConfigRequest) (*domain.WorkflowConfigDTO, error) {
	if !req.Module.IsValid() {
		return nil, fmt.Errorf("%w: unknown module %q", ErrInvalidInput, req.Module)
	}

	steps, err := s.buildSteps(ctx, req.Steps)
	if err != nil {
		return nil, err
	}

	cfg := &domain.WorkflowConfig{
		Module:      req.Module,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		Steps:       steps,
	}

	if err := s.configRepo.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to create workflow config: %w", err)
	}

	s.logger.Info("workflow config created",
		zap.String("configID", cfg.ID.String()),
		zap.String("module", string(req.Module)),
	)

	s.auditService.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionCreate,
		EntityType: "workflow_config",
		EntityID:   &cfg.ID,
		EntityName: cfg.Name,
		Detail:     fmt.Sprintf("Workflow %s created for module %s", cfg.Name, req.Module),
	})

	return s.reload(ctx, cfg.ID)
}

// GetByID returns a workflow configuration with its steps
func (s *WorkflowConfigService) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowConfigDTO, error) {
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow config: %w", err)
	}

	dto := mapper.ToWorkflowConfigDTO(cfg)
	return &dto, nil
}

// List returns workflow configurations, optionally filtered by module
func (s *WorkflowConfigService) List(ctx context.Context, module *domain.DocumentType) ([]domain.WorkflowConfigDTO, error) {
	if module != nil && !module.IsValid() {
		return nil, fmt.Errorf("%w: unknown module %q", ErrInvalidInput, *module)
	}

	configs, err := s.configRepo.List(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow configs: %w", err)
	}

	dtos := make([]domain.WorkflowConfigDTO, len(configs))
	for i := range configs {
		dtos[i] = mapper.ToWorkflowConfigDTO(&configs[i])
	}
	return dtos, nil
}

// Update modifies a workflow configuration; passing steps replaces the
// whole step list
func (s *WorkflowConfigService) Update(ctx context.Context, r *http.Request, id uuid.UUID, req *domain.UpdateWorkflowConfigRequest) (*domain.WorkflowConfigDTO, error) {
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow config: %w", err)
	}

	if req.Name != nil {
		cfg.Name = *req.Name
	}
	if req.Description != nil {
		cfg.Description = *req.Description
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}

	// Clear the loaded steps so gorm does not upsert them alongside
	cfg.Steps = nil
	if err := s.configRepo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to update workflow config: %w", err)
	}

	if req.Steps != nil {
		steps, err := s.buildSteps(ctx, req.Steps)
		if err != nil {
			return nil, err
		}
		if err := s.configRepo.ReplaceSteps(ctx, id, steps); err != nil {
			return nil, fmt.Errorf("failed to replace workflow steps: %w", err)
		}
	}

	s.auditService.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionUpdate,
		EntityType: "workflow_config",
		EntityID:   &id,
		EntityName: cfg.Name,
		Detail:     fmt.Sprintf("Workflow %s updated", cfg.Name),
	})

	return s.reload(ctx, id)
}

// Delete removes a workflow configuration and its steps
func (s *WorkflowConfigService) Delete(ctx context.Context, r *http.Request, id uuid.UUID) error {
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get workflow config: %w", err)
	}

	if err := s.configRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workflow config: %w", err)
	}

	s.auditService.Log(ctx, r, LogEntry{
		Action:     domain.AuditActionDelete,
		EntityType: "workflow_config",
		EntityID:   &id,
		EntityName: cfg.Name,
		Detail:     fmt.Sprintf("Workflow %s deleted", cfg.Name),
	})

	return nil
}

// buildSteps validates step requests and resolves role references
func (s *WorkflowConfigService) buildSteps(ctx context.Context, reqs []domain.CreateWorkflowStepRequest) ([]domain.WorkflowStep, error) {
	steps := make([]domain.WorkflowStep, 0, len(reqs))
	seen := make(map[int]bool, len(reqs))

	for _, req := range reqs {
		if seen[req.StepNumber] {
			return nil, fmt.Errorf("%w: duplicate step number %d", ErrInvalidInput, req.StepNumber)
		}
		seen[req.StepNumber] = true

		switch req.ApproverType {
		case domain.ApproverTypeRole:
			if req.RoleID == nil {
				return nil, fmt.Errorf("%w: step %d requires a roleId", ErrInvalidInput, req.StepNumber)
			}
			if _, err := s.roleRepo.GetByID(ctx, *req.RoleID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: step %d references an unknown role", ErrInvalidInput, req.StepNumber)
				}
				return nil, fmt.Errorf("failed to load role: %w", err)
			}
		case domain.ApproverTypeUser:
			if req.ApproverID == nil {
				return nil, fmt.Errorf("%w: step %d requires an approverId", ErrInvalidInput, req.StepNumber)
			}
		default:
			return nil, fmt.Errorf("%w: unknown approver type %q", ErrInvalidInput, req.ApproverType)
		}

		steps = append(steps, domain.WorkflowStep{
			StepNumber:   req.StepNumber,
			Action:       req.Action,
			ApproverType: req.ApproverType,
			ApproverID:   req.ApproverID,
			RoleID:       req.RoleID,
		})
	}

	return steps, nil
}

func (s *WorkflowConfigService) reload(ctx context.Context, id uuid.UUID) (*domain.WorkflowConfigDTO, error) {
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload workflow config: %w", err)
	}

	dto := mapper.ToWorkflowConfigDTO(cfg)
	return &dto, nil
}
