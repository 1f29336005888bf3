package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReferenceService generates reference numbers of the form
// {PREFIX}-{YYYYMM}-{seq} (e.g. NFA-202609-00042). The sequence is
// per document type and calendar month, backed by a row-locked counter,
// so numbers are unique and never reused even after deletions.
type ReferenceService struct {
	seqRepo *repository.ReferenceSequenceRepository
	logger  *zap.Logger
}

// NewReferenceService creates a new ReferenceService
func NewReferenceService(seqRepo *repository.ReferenceSequenceRepository, logger *zap.Logger) *ReferenceService {
	return &ReferenceService{
		seqRepo: seqRepo,
		logger:  logger,
	}
}

// Generate allocates the next reference number for a document type
func (s *ReferenceService) Generate(ctx context.Context, docType domain.DocumentType) (string, error) {
	period := s.currentPeriod()
	seq, err := s.seqRepo.GetNextNumber(ctx, docType, period)
	if err != nil {
		return "", fmt.Errorf("failed to allocate reference number: %w", err)
	}

	ref := formatReference(docType, period, seq)
	s.logger.Debug("generated reference number",
		zap.String("docType", string(docType)),
		zap.String("reference", ref),
	)
	return ref, nil
}

// GenerateTx allocates a reference number inside an existing transaction,
// so a failed document insert rolls the counter back too.
func (s *ReferenceService) GenerateTx(tx *gorm.DB, docType domain.DocumentType) (string, error) {
	period := s.currentPeriod()
	seq, err := s.seqRepo.GetNextNumberTx(tx, docType, period)
	if err != nil {
		return "", fmt.Errorf("failed to allocate reference number: %w", err)
	}
	return formatReference(docType, period, seq), nil
}

func (s *ReferenceService) currentPeriod() string {
	return time.Now().UTC().Format("200601")
}

func formatReference(docType domain.DocumentType, period string, seq int) string {
	return fmt.Sprintf("%s-%s-%05d", docType.ReferencePrefix(), period, seq)
}
