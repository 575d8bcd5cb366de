package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCatalogEntryRepository implements catalog.CatalogEntryRepository using GORM
type GormCatalogEntryRepository struct {
	db *gorm.DB
}

// NewGormCatalogEntryRepository creates a new GormCatalogEntryRepository
func NewGormCatalogEntryRepository(db *gorm.DB) *GormCatalogEntryRepository {
	return &GormCatalogEntryRepository{db: db}
}

// FindByKey finds an entry by its normalized key
func (r *GormCatalogEntryRepository) FindByKey(ctx context.Context, key string) (*catalog.CatalogEntry, error) {
	var model models.CatalogEntryModel
	if err := r.db.WithContext(ctx).
		Where("entry_key = ?", catalog.NormalizeKey(key)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return model.ToDomain()
}

// FindByKeys finds every entry whose key is listed, ordered by key
func (r *GormCatalogEntryRepository) FindByKeys(ctx context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	if len(keys) == 0 {
		return []catalog.CatalogEntry{}, nil
	}
	var rows []models.CatalogEntryModel
	if err := r.db.WithContext(ctx).
		Where("entry_key IN ?", normalizeKeys(keys)).
		Order("entry_key ASC").
		Find(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	return toEntries(rows)
}

// FindAll finds entries matching the filter
func (r *GormCatalogEntryRepository) FindAll(ctx context.Context, filter catalog.EntryFilter) ([]catalog.CatalogEntry, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CatalogEntryModel{}), filter)

	var rows []models.CatalogEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	return toEntries(rows)
}

// FindPendingByBatch finds pending, conflict-free entries last written by the batch
func (r *GormCatalogEntryRepository) FindPendingByBatch(ctx context.Context, batchID uuid.UUID) ([]catalog.CatalogEntry, error) {
	var rows []models.CatalogEntryModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ? AND approval_state = ? AND in_conflict = ?", batchID, catalog.ApprovalStatePending, false).
		Order("entry_key ASC").
		Find(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	return toEntries(rows)
}

// FindApprovedByKeys reads the approved, conflict-free entries for keys in one query
func (r *GormCatalogEntryRepository) FindApprovedByKeys(ctx context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	if len(keys) == 0 {
		return []catalog.CatalogEntry{}, nil
	}
	var rows []models.CatalogEntryModel
	if err := r.db.WithContext(ctx).
		Where("entry_key IN ? AND approval_state = ? AND in_conflict = ?", normalizeKeys(keys), catalog.ApprovalStateApproved, false).
		Order("entry_key ASC").
		Find(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	return toEntries(rows)
}

// Count counts entries matching the filter
func (r *GormCatalogEntryRepository) Count(ctx context.Context, filter catalog.EntryFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.CatalogEntryModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, classifyError(err)
	}
	return count, nil
}

// SaveWithLock inserts a version 1 entry, or updates the stored row only if
// its version is still entry.Version-1
func (r *GormCatalogEntryRepository) SaveWithLock(ctx context.Context, entry *catalog.CatalogEntry) error {
	model, err := models.CatalogEntryModelFromDomain(entry)
	if err != nil {
		return err
	}

	if entry.Version <= 1 {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.NewStaleVersionError(entry.Key, 0, r.currentVersion(ctx, entry.Key))
			}
			return classifyError(err)
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.CatalogEntryModel{}).
		Where("entry_key = ? AND version = ?", entry.Key, entry.Version-1).
		Updates(map[string]interface{}{
			"fields":           model.Fields,
			"tags":             model.Tags,
			"tag_index":        model.TagIndex,
			"approval_state":   model.ApprovalState,
			"rejection_reason": model.RejectionReason,
			"conflict":         model.Conflict,
			"in_conflict":      model.InConflict,
			"batch_id":         model.BatchID,
			"source_row_index": model.SourceRowIndex,
			"approved_at":      model.ApprovedAt,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return classifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewStaleVersionError(entry.Key, entry.Version-1, r.currentVersion(ctx, entry.Key))
	}
	return nil
}

// currentVersion reads the stored version of key, or 0 when it is missing
func (r *GormCatalogEntryRepository) currentVersion(ctx context.Context, key string) int {
	var version int
	err := r.db.WithContext(ctx).
		Model(&models.CatalogEntryModel{}).
		Where("entry_key = ?", key).
		Select("version").
		Scan(&version).Error
	if err != nil {
		return 0
	}
	return version
}

func (r *GormCatalogEntryRepository) applyFilter(query *gorm.DB, filter catalog.EntryFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	query = paginate(query, filter.Page, filter.PageSize)
	return query.Order(catalogEntrySort.order(filter.OrderBy, filter.OrderDir))
}

func (r *GormCatalogEntryRepository) applyFilterWithoutPagination(query *gorm.DB, filter catalog.EntryFilter) *gorm.DB {
	if filter.State != "" {
		query = query.Where("approval_state = ?", filter.State)
	}
	if filter.Tag != "" {
		query = query.Where("tag_index LIKE ?", models.TagPattern(filter.Tag))
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.InConflict != nil {
		query = query.Where("in_conflict = ?", *filter.InConflict)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("entry_key LIKE ?", "%"+strings.ToUpper(search)+"%")
	}
	return query
}

func normalizeKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = catalog.NormalizeKey(k)
	}
	return out
}

func toEntries(rows []models.CatalogEntryModel) ([]catalog.CatalogEntry, error) {
	entries := make([]catalog.CatalogEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}
