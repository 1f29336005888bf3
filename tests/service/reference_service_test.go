package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/repository"
	"github.com/kspl/approval-api/internal/service"
	"github.com/kspl/approval-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReferenceService_Generate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seqRepo := repository.NewReferenceSequenceRepository(db)
	svc := service.NewReferenceService(seqRepo, zap.NewNop())
	ctx := context.Background()
	period := time.Now().UTC().Format("200601")

	t.Run("format and monotonic increment", func(t *testing.T) {
		ref, err := svc.Generate(ctx, domain.DocTypeNFA)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("NFA-%s-00001", period), ref)

		ref, err = svc.Generate(ctx, domain.DocTypeNFA)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("NFA-%s-00002", period), ref)
	})

	t.Run("types count independently", func(t *testing.T) {
		ref, err := svc.Generate(ctx, domain.DocTypeWorkOrder)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("WO-%s-00001", period), ref)

		ref, err = svc.Generate(ctx, domain.DocTypeStatutoryDocument)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("STAT-%s-00001", period), ref)
	})

	t.Run("every document type has a distinct prefix", func(t *testing.T) {
		seen := make(map[string]domain.DocumentType)
		for _, dt := range domain.AllDocumentTypes() {
			prefix := dt.ReferencePrefix()
			if existing, ok := seen[prefix]; ok {
				t.Fatalf("prefix %s shared by %s and %s", prefix, existing, dt)
			}
			seen[prefix] = dt
		}
	})
}

func TestReferenceSequenceRepository_Periods(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewReferenceSequenceRepository(db)
	ctx := context.Background()

	t.Run("sequence restarts per period", func(t *testing.T) {
		n, err := repo.GetNextNumber(ctx, domain.DocTypeNFA, "202608")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = repo.GetNextNumber(ctx, domain.DocTypeNFA, "202608")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		// New month starts over at 1
		n, err = repo.GetNextNumber(ctx, domain.DocTypeNFA, "202609")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("counter survives across calls", func(t *testing.T) {
		current, err := repo.GetCurrentSequence(ctx, domain.DocTypeNFA, "202608")
		require.NoError(t, err)
		assert.Equal(t, 2, current)
	})

	t.Run("allocation rolls back with its transaction", func(t *testing.T) {
		tx := db.Begin()
		require.NoError(t, tx.Error)
		n, err := repo.GetNextNumberTx(tx, domain.DocTypeCostContract, "202609")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, tx.Rollback().Error)

		// The aborted allocation is not burned
		n, err = repo.GetNextNumber(ctx, domain.DocTypeCostContract, "202609")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
