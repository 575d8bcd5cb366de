package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProposalRepository implements proposal.ProposalRepository using GORM
type GormProposalRepository struct {
	db *gorm.DB
}

// NewGormProposalRepository creates a new GormProposalRepository
func NewGormProposalRepository(db *gorm.DB) *GormProposalRepository {
	return &GormProposalRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds a proposal with its line items
func (r *GormProposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*proposal.Proposal, error) {
	var model models.ProposalModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return model.ToDomain()
}

// FindAll finds proposals matching the filter
func (r *GormProposalRepository) FindAll(ctx context.Context, filter proposal.ProposalFilter) ([]proposal.Proposal, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ProposalModel{}), filter)
	query = paginate(query, filter.Page, filter.PageSize)
	query = query.Order(proposalSort.order(filter.OrderBy, filter.OrderDir))

	var rows []models.ProposalModel
	if err := query.Preload("Items", preloadItems).Find(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	proposals := make([]proposal.Proposal, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, nil
}

// Count counts proposals matching the filter
func (r *GormProposalRepository) Count(ctx context.Context, filter proposal.ProposalFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ProposalModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, classifyError(err)
	}
	return count, nil
}

// Save inserts the proposal and its items in one transaction
func (r *GormProposalRepository) Save(ctx context.Context, p *proposal.Proposal) error {
	model := &models.ProposalModel{}
	if err := model.FromDomain(p); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil && isUniqueViolation(err) {
		return shared.ErrAlreadyExists.WithDetail("id", p.ID.String())
	}
	return classifyError(err)
}

func (r *GormProposalRepository) applyFilterWithoutPagination(query *gorm.DB, filter proposal.ProposalFilter) *gorm.DB {
	if ref := strings.TrimSpace(filter.ClientRef); ref != "" {
		query = query.Where("client_ref = ?", ref)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	return query
}
