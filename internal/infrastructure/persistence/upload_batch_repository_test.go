package persistence

import (
	"context"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagedBatch(t *testing.T, name, fingerprint string) *bulk.UploadBatch {
	t.Helper()
	b, err := bulk.NewUploadBatch(name, 128, fingerprint)
	require.NoError(t, err)
	require.NoError(t, b.Stage(
		bulk.VerificationCounts{TotalRows: 3, VerifiedRows: 1, FlaggedRows: 1, RejectedRows: 1},
		bulk.ChangeCounts{Inserts: 2, Rejected: 1},
		[]verification.RuleConfigurationWarning{{RuleID: "r1", Tag: "ghost", Message: "tag ghost is never produced"}},
	))
	return b
}

func TestGormUploadBatchRepository(t *testing.T) {
	db := setupSQLiteTestDB(t)
	repo := NewGormUploadBatchRepository(db)
	ctx := context.Background()

	batch := stagedBatch(t, "catalog.csv", "fp-1")
	require.NoError(t, repo.Save(ctx, batch))

	t.Run("round trip", func(t *testing.T) {
		found, err := repo.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, "catalog.csv", found.FileName)
		assert.Equal(t, int64(128), found.FileSize)
		assert.Equal(t, bulk.BatchStatusStaged, found.Status)
		assert.Equal(t, batch.Verification, found.Verification)
		assert.Equal(t, batch.Changes, found.Changes)
		require.Len(t, found.Warnings, 1)
		assert.Equal(t, "ghost", found.Warnings[0].Tag)
		assert.NotNil(t, found.StagedAt)
		assert.Equal(t, batch.Version, found.Version)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("open batch is found by fingerprint", func(t *testing.T) {
		found, err := repo.FindOpenByFingerprint(ctx, "fp-1")
		require.NoError(t, err)
		assert.Equal(t, batch.ID, found.ID)
	})

	t.Run("committed batch is no longer open", func(t *testing.T) {
		require.NoError(t, batch.Complete(bulk.CommitCounts{Applied: 2}, nil))
		require.NoError(t, repo.Save(ctx, batch))

		_, err := repo.FindOpenByFingerprint(ctx, "fp-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		found, err := repo.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, bulk.BatchStatusCommitted, found.Status)
		assert.Equal(t, 2, found.Commit.Applied)
		assert.NotNil(t, found.CompletedAt)
	})

	t.Run("list and count by status", func(t *testing.T) {
		other := stagedBatch(t, "prices.xlsx", "fp-2")
		require.NoError(t, repo.Save(ctx, other))

		staged := bulk.BatchStatusStaged
		batches, err := repo.FindAll(ctx, bulk.UploadBatchFilter{Status: &staged})
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, other.ID, batches[0].ID)

		count, err := repo.Count(ctx, bulk.UploadBatchFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		batches, err = repo.FindAll(ctx, bulk.UploadBatchFilter{Filter: shared.Filter{Search: "catalog", OrderBy: "file_name", OrderDir: "asc"}})
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, batch.ID, batches[0].ID)
	})
}
