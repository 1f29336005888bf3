package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/kspl/approval-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceSequenceRepository handles database operations for reference
// number sequences. Sequences are keyed per (document type, period) so each
// module restarts numbering every month and deletions never free a number.
type ReferenceSequenceRepository struct {
	db *gorm.DB
}

// NewReferenceSequenceRepository creates a new ReferenceSequenceRepository
func NewReferenceSequenceRepository(db *gorm.DB) *ReferenceSequenceRepository {
	return &ReferenceSequenceRepository{db: db}
}

// GetNextNumber atomically retrieves and increments the sequence for a
// document type and period (YYYYMM). Uses SELECT FOR UPDATE so concurrent
// creations never hand out the same number. If no sequence exists for the
// type/period, one is created starting at 1.
func (r *ReferenceSequenceRepository) GetNextNumber(ctx context.Context, docType domain.DocumentType, period string) (int, error) {
	var nextSeq int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		nextSeq, err = r.nextNumberTx(tx, docType, period)
		return err
	})

	if err != nil {
		return 0, err
	}

	return nextSeq, nil
}

// GetNextNumberTx is GetNextNumber running inside an existing transaction,
// for callers that allocate a number as part of a larger unit of work.
func (r *ReferenceSequenceRepository) GetNextNumberTx(tx *gorm.DB, docType domain.DocumentType, period string) (int, error) {
	return r.nextNumberTx(tx, docType, period)
}

func (r *ReferenceSequenceRepository) nextNumberTx(tx *gorm.DB, docType domain.DocumentType, period string) (int, error) {
	var seq domain.ReferenceSequence

	// Row lock for atomicity
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("doc_type = ? AND period = ?", docType, period).
		First(&seq)

	if result.Error == gorm.ErrRecordNotFound {
		seq = domain.ReferenceSequence{
			DocType:      docType,
			Period:       period,
			LastSequence: 1,
		}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("failed to create reference sequence: %w", err)
		}
		return 1, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get reference sequence: %w", result.Error)
	}

	nextSeq := seq.LastSequence + 1
	if err := tx.Model(&seq).Updates(map[string]interface{}{
		"last_sequence": nextSeq,
		"updated_at":    time.Now(),
	}).Error; err != nil {
		return 0, fmt.Errorf("failed to update reference sequence: %w", err)
	}
	return nextSeq, nil
}

// GetCurrentSequence retrieves the current sequence value without incrementing.
// Returns 0 if no sequence exists for the type/period.
func (r *ReferenceSequenceRepository) GetCurrentSequence(ctx context.Context, docType domain.DocumentType, period string) (int, error) {
	var seq domain.ReferenceSequence
	result := r.db.WithContext(ctx).
		Where("doc_type = ? AND period = ?", docType, period).
		First(&seq)

	if result.Error == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get reference sequence: %w", result.Error)
	}

	return seq.LastSequence, nil
}

// SetSequence sets the sequence to a specific value, for data migrations
// that import already-numbered documents. The value is the LAST USED
// sequence number; it is never reduced below the current value.
func (r *ReferenceSequenceRepository) SetSequence(ctx context.Context, docType domain.DocumentType, period string, value int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.ReferenceSequence
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doc_type = ? AND period = ?", docType, period).
			First(&seq)

		if result.Error == gorm.ErrRecordNotFound {
			seq = domain.ReferenceSequence{
				DocType:      docType,
				Period:       period,
				LastSequence: value,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create reference sequence: %w", err)
			}
			return nil
		}
		if result.Error != nil {
			return fmt.Errorf("failed to get reference sequence: %w", result.Error)
		}

		if value > seq.LastSequence {
			if err := tx.Model(&seq).Updates(map[string]interface{}{
				"last_sequence": value,
				"updated_at":    time.Now(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update reference sequence: %w", err)
			}
		}

		return nil
	})
}

// ListSequences returns all sequences (useful for debugging/admin)
func (r *ReferenceSequenceRepository) ListSequences(ctx context.Context) ([]domain.ReferenceSequence, error) {
	var sequences []domain.ReferenceSequence
	err := r.db.WithContext(ctx).
		Order("doc_type ASC, period DESC").
		Find(&sequences).Error
	return sequences, err
}
