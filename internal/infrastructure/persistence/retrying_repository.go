package persistence

import (
	"context"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// retryOnce runs fn and repeats it a single time when the first attempt
// failed transiently. Validation and domain failures are returned as is.
func retryOnce[T any](ctx context.Context, logger *zap.Logger, op string, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil || !shared.IsTransient(err) || ctx.Err() != nil {
		return result, err
	}
	logger.Warn("Transient storage failure, retrying once",
		zap.String("operation", op),
		zap.Error(err),
	)
	return fn()
}

// RetryingCatalogEntryRepository gives every storage call of the wrapped
// repository one extra attempt on transient failure
type RetryingCatalogEntryRepository struct {
	next   catalog.CatalogEntryRepository
	logger *zap.Logger
}

var _ catalog.CatalogEntryRepository = (*RetryingCatalogEntryRepository)(nil)

// NewRetryingCatalogEntryRepository wraps next
func NewRetryingCatalogEntryRepository(next catalog.CatalogEntryRepository, logger *zap.Logger) *RetryingCatalogEntryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingCatalogEntryRepository{next: next, logger: logger}
}

// FindByKey implements catalog.CatalogEntryRepository
func (r *RetryingCatalogEntryRepository) FindByKey(ctx context.Context, key string) (*catalog.CatalogEntry, error) {
	return retryOnce(ctx, r.logger, "catalog.find_by_key", func() (*catalog.CatalogEntry, error) {
		return r.next.FindByKey(ctx, key)
	})
}

// FindByKeys implements catalog.CatalogEntryRepository
func (r *RetryingCatalogEntryRepository) FindByKeys(ctx context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	return retryOnce(ctx, r.logger, "catalog.find_by_keys", func() ([]catalog.CatalogEntry, error) {
		return r.next.FindByKeys(ctx, keys)
	})
}

// FindAll implements catalog.CatalogEntryRepository
func (r *RetryingCatalogEntryRepository) FindAll(ctx context.Context, filter catalog.EntryFilter) ([]catalog.CatalogEntry, error) {
	return retryOnce(ctx, r.logger, "catalog.find_all", func() ([]catalog.CatalogEntry, error) {
		return r.next.FindAll(ctx, filter)
	})
}

// FindPendingByBatch implements catalog.CatalogEntryRepository
func (r *RetryingCatalogEntryRepository) FindPendingByBatch(ctx context.Context, batchID uuid.UUID) ([]catalog.CatalogEntry, error) {
	return retryOnce(ctx, r.logger, "catalog.find_pending_by_batch", func() ([]catalog.CatalogEntry, error) {
		return r.next.FindPendingByBatch(ctx, batchID)
	})
}

// FindApprovedByKeys implements catalog.CatalogEntryRepository
func (r *RetryingCatalogEntryRepository) FindApprovedByKeys(ctx context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	return retryOnce(ctx, r.logger, "catalog.find_approved_by_keys", func() ([]catalog.CatalogEntry, error) {
		return r.next.FindApprovedByKeys(ctx, keys)
	})
}

// Count implements catalog.CatalogEntryRepository
func (r *RetryingCatalogEntryRepository) Count(ctx context.Context, filter catalog.EntryFilter) (int64, error) {
	return retryOnce(ctx, r.logger, "catalog.count", func() (int64, error) {
		return r.next.Count(ctx, filter)
	})
}

// SaveWithLock implements catalog.CatalogEntryRepository. A retried write that
// had in fact landed surfaces as STALE_VERSION, never as a double write.
func (r *RetryingCatalogEntryRepository) SaveWithLock(ctx context.Context, entry *catalog.CatalogEntry) error {
	_, err := retryOnce(ctx, r.logger, "catalog.save_with_lock", func() (struct{}, error) {
		return struct{}{}, r.next.SaveWithLock(ctx, entry)
	})
	return err
}
