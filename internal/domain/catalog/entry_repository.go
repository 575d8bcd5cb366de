package catalog

import (
	"context"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// EntryFilter narrows catalog queries. Zero values mean "any".
type EntryFilter struct {
	shared.Filter
	State      ApprovalState
	Tag        string
	BatchID    *uuid.UUID
	InConflict *bool
}

// DefaultEntryFilter returns a filter with default paging
func DefaultEntryFilter() EntryFilter {
	f := EntryFilter{Filter: shared.DefaultFilter()}
	f.OrderBy = "key"
	f.OrderDir = "asc"
	return f
}

// CatalogEntryRepository defines the interface for catalog persistence
type CatalogEntryRepository interface {
	// FindByKey finds an entry by its normalized key
	FindByKey(ctx context.Context, key string) (*CatalogEntry, error)

	// FindByKeys finds every entry whose key is listed; missing keys are skipped
	FindByKeys(ctx context.Context, keys []string) ([]CatalogEntry, error)

	// FindAll finds entries matching the filter
	FindAll(ctx context.Context, filter EntryFilter) ([]CatalogEntry, error)

	// FindPendingByBatch finds pending entries last touched by the batch
	FindPendingByBatch(ctx context.Context, batchID uuid.UUID) ([]CatalogEntry, error)

	// FindApprovedByKeys reads the approved, conflict-free entries for keys in one query
	FindApprovedByKeys(ctx context.Context, keys []string) ([]CatalogEntry, error)

	// Count counts entries matching the filter
	Count(ctx context.Context, filter EntryFilter) (int64, error)

	// SaveWithLock writes the entry if the stored version is entry.Version-1.
	// Version 1 means insert. Any mismatch fails with a STALE_VERSION error.
	SaveWithLock(ctx context.Context, entry *CatalogEntry) error
}
