package bulk

import (
	"context"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// UploadBatchFilter defines the filters for querying upload batches
type UploadBatchFilter struct {
	shared.Filter
	Status *BatchStatus
}

// UploadBatchRepository defines the interface for upload batch persistence
type UploadBatchRepository interface {
	// FindByID finds an upload batch by ID
	FindByID(ctx context.Context, id uuid.UUID) (*UploadBatch, error)

	// FindOpenByFingerprint finds a batch with identical content that can still be committed
	FindOpenByFingerprint(ctx context.Context, fingerprint string) (*UploadBatch, error)

	// FindAll returns batches matching the filter
	FindAll(ctx context.Context, filter UploadBatchFilter) ([]UploadBatch, error)

	// Count counts batches matching the filter
	Count(ctx context.Context, filter UploadBatchFilter) (int64, error)

	// Save saves an upload batch (create or update)
	Save(ctx context.Context, batch *UploadBatch) error
}
