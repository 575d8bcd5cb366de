package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormBacklogProvider implements BacklogProvider with aggregate queries over
// the catalog_entries and upload_batches tables
type GormBacklogProvider struct {
	db *gorm.DB
}

// NewGormBacklogProvider creates a new GormBacklogProvider.
func NewGormBacklogProvider(db *gorm.DB) *GormBacklogProvider {
	return &GormBacklogProvider{db: db}
}

// Backlog counts pending entries, conflicted entries and staged batches
func (p *GormBacklogProvider) Backlog(ctx context.Context) (Backlog, error) {
	var b Backlog
	db := p.db.WithContext(ctx)

	if err := db.Table("catalog_entries").
		Where("approval_state = ? AND in_conflict = ?", "pending", false).
		Count(&b.PendingApprovals).Error; err != nil {
		return Backlog{}, err
	}
	if err := db.Table("catalog_entries").
		Where("in_conflict = ?", true).
		Count(&b.OpenConflicts).Error; err != nil {
		return Backlog{}, err
	}
	if err := db.Table("upload_batches").
		Where("status = ?", "staged").
		Count(&b.StagedBatches).Error; err != nil {
		return Backlog{}, err
	}
	return b, nil
}
