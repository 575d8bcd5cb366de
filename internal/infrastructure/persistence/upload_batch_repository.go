package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUploadBatchRepository implements bulk.UploadBatchRepository using GORM
type GormUploadBatchRepository struct {
	db *gorm.DB
}

// NewGormUploadBatchRepository creates a new GormUploadBatchRepository
func NewGormUploadBatchRepository(db *gorm.DB) *GormUploadBatchRepository {
	return &GormUploadBatchRepository{db: db}
}

// FindByID finds an upload batch by ID
func (r *GormUploadBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.UploadBatch, error) {
	var model models.UploadBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return model.ToDomain()
}

// FindOpenByFingerprint finds the newest batch with the same content that can
// still be committed
func (r *GormUploadBatchRepository) FindOpenByFingerprint(ctx context.Context, fingerprint string) (*bulk.UploadBatch, error) {
	var model models.UploadBatchModel
	if err := r.db.WithContext(ctx).
		Where("fingerprint = ? AND status IN ?", fingerprint,
			[]bulk.BatchStatus{bulk.BatchStatusStaged, bulk.BatchStatusPartiallyCommitted}).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return model.ToDomain()
}

// FindAll returns batches matching the filter
func (r *GormUploadBatchRepository) FindAll(ctx context.Context, filter bulk.UploadBatchFilter) ([]bulk.UploadBatch, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.UploadBatchModel{}), filter)
	query = paginate(query, filter.Page, filter.PageSize)
	query = query.Order(uploadBatchSort.order(filter.OrderBy, filter.OrderDir))

	var rows []models.UploadBatchModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	batches := make([]bulk.UploadBatch, 0, len(rows))
	for i := range rows {
		b, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, nil
}

// Count counts batches matching the filter
func (r *GormUploadBatchRepository) Count(ctx context.Context, filter bulk.UploadBatchFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.UploadBatchModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, classifyError(err)
	}
	return count, nil
}

// Save creates or updates an upload batch
func (r *GormUploadBatchRepository) Save(ctx context.Context, batch *bulk.UploadBatch) error {
	model := &models.UploadBatchModel{}
	if err := model.FromDomain(batch); err != nil {
		return err
	}
	return classifyError(r.db.WithContext(ctx).Save(model).Error)
}

func (r *GormUploadBatchRepository) applyFilterWithoutPagination(query *gorm.DB, filter bulk.UploadBatchFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("file_name LIKE ?", "%"+search+"%")
	}
	return query
}
