package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
)

type WorkflowConfigRepository struct {
	db *gorm.DB
}

func NewWorkflowConfigRepository(db *gorm.DB) *WorkflowConfigRepository {
	return &WorkflowConfigRepository{db: db}
}

func (r *WorkflowConfigRepository) Create(ctx context.Context, cfg *domain.WorkflowConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *WorkflowConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowConfig, error) {
	var cfg domain.WorkflowConfig
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Preload("Steps.Role").
		First(&cfg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetActiveByModule returns the active workflow config for a document type,
// if one exists.
func (r *WorkflowConfigRepository) GetActiveByModule(ctx context.Context, module domain.DocumentType) (*domain.WorkflowConfig, error) {
	var cfg domain.WorkflowConfig
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Preload("Steps.Role").
		Where("module = ? AND is_active = ?", module, true).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *WorkflowConfigRepository) List(ctx context.Context, module *domain.DocumentType) ([]domain.WorkflowConfig, error) {
	var cfgs []domain.WorkflowConfig
	query := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Preload("Steps.Role")
	if module != nil {
		query = query.Where("module = ?", *module)
	}
	err := query.Order("module ASC, name ASC").Find(&cfgs).Error
	return cfgs, err
}

func (r *WorkflowConfigRepository) Update(ctx context.Context, cfg *domain.WorkflowConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *WorkflowConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workflow_config_id = ?", id).Delete(&domain.WorkflowStep{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.WorkflowConfig{}, "id = ?", id).Error
	})
}

// ReplaceSteps swaps a config's steps for a new ordered set
func (r *WorkflowConfigRepository) ReplaceSteps(ctx context.Context, configID uuid.UUID, steps []domain.WorkflowStep) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workflow_config_id = ?", configID).Delete(&domain.WorkflowStep{}).Error; err != nil {
			return err
		}
		for i := range steps {
			steps[i].WorkflowConfigID = configID
		}
		if len(steps) == 0 {
			return nil
		}
		return tx.Create(&steps).Error
	})
}
