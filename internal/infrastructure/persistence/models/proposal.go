package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProposalModel is the persistence model for the Proposal aggregate.
// Subtotal and Total are derived values stored for listing and reporting.
type ProposalModel struct {
	AggregateModel
	ClientRef      string              `gorm:"type:varchar(128);not null;index"`
	Title          string              `gorm:"type:varchar(255)"`
	Currency       string              `gorm:"type:varchar(3);not null"`
	Items          []ProposalItemModel `gorm:"foreignKey:ProposalID;references:ID"`
	DiscountKind   string              `gorm:"type:varchar(10)"`
	DiscountRate   decimal.Decimal     `gorm:"type:decimal(9,4);not null;default:0"`
	DiscountAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Subtotal       decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Total          decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProposalModel) TableName() string {
	return "proposals"
}

// ProposalItemModel is one line of a stored proposal, with its product snapshot.
type ProposalItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProposalID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position     int             `gorm:"not null"`
	ProductKey   string          `gorm:"type:varchar(128);not null"`
	ProductName  string          `gorm:"type:varchar(255)"`
	Product      datatypes.JSON  `gorm:"type:jsonb;not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountRate decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProposalItemModel) TableName() string {
	return "proposal_items"
}

// ToDomain converts the persistence model to a domain Proposal.
func (m *ProposalModel) ToDomain() (*proposal.Proposal, error) {
	currency := valueobject.Currency(m.Currency)
	p := &proposal.Proposal{
		ClientRef: m.ClientRef,
		Title:     m.Title,
		Currency:  currency,
		Items:     make([]proposal.LineItem, 0, len(m.Items)),
	}
	m.toAggregate(&p.BaseAggregateRoot)

	for _, item := range m.Items {
		line, err := item.toDomain(currency)
		if err != nil {
			return nil, fmt.Errorf("proposal %s: %w", m.ID, err)
		}
		p.Items = append(p.Items, line)
	}

	if m.DiscountKind != "" {
		rate, err := valueobject.NewRate(m.DiscountRate)
		if err != nil {
			return nil, fmt.Errorf("proposal %s discount: %w", m.ID, err)
		}
		amount, err := valueobject.NewMoney(m.DiscountAmount, currency)
		if err != nil {
			return nil, fmt.Errorf("proposal %s discount: %w", m.ID, err)
		}
		p.Discount = &proposal.Discount{Kind: proposal.DiscountKind(m.DiscountKind), Rate: rate, Amount: amount}
	}
	return p, nil
}

func (m *ProposalItemModel) toDomain(currency valueobject.Currency) (proposal.LineItem, error) {
	var snapshot proposal.ProductSnapshot
	if err := unmarshalJSON(m.Product, &snapshot); err != nil {
		return proposal.LineItem{}, fmt.Errorf("item %s snapshot: %w", m.ProductKey, err)
	}
	price, err := valueobject.NewMoney(m.UnitPrice, currency)
	if err != nil {
		return proposal.LineItem{}, fmt.Errorf("item %s price: %w", m.ProductKey, err)
	}
	rate, err := valueobject.NewRate(m.DiscountRate)
	if err != nil {
		return proposal.LineItem{}, fmt.Errorf("item %s discount: %w", m.ProductKey, err)
	}
	return proposal.LineItem{
		ProductKey:   m.ProductKey,
		Product:      snapshot,
		Quantity:     m.Quantity,
		UnitPrice:    price,
		DiscountRate: rate,
	}, nil
}

// FromDomain populates the persistence model from a domain Proposal.
func (m *ProposalModel) FromDomain(p *proposal.Proposal) error {
	m.fromAggregate(p.BaseAggregateRoot)
	m.ClientRef = p.ClientRef
	m.Title = p.Title
	m.Currency = string(p.Currency)
	m.Subtotal = p.Subtotal().Amount()
	m.Total = p.Total().Amount()
	m.DiscountKind = ""
	m.DiscountRate = decimal.Zero
	m.DiscountAmount = decimal.Zero
	if p.Discount != nil {
		m.DiscountKind = string(p.Discount.Kind)
		m.DiscountRate = p.Discount.Rate.Decimal()
		m.DiscountAmount = p.Discount.Amount.Amount()
	}

	m.Items = make([]ProposalItemModel, 0, len(p.Items))
	for i, item := range p.Items {
		snapshot, err := json.Marshal(item.Product)
		if err != nil {
			return fmt.Errorf("item %s snapshot: %w", item.ProductKey, err)
		}
		m.Items = append(m.Items, ProposalItemModel{
			ID:           uuid.New(),
			ProposalID:   p.ID,
			Position:     i,
			ProductKey:   item.ProductKey,
			ProductName:  item.Product.Name,
			Product:      datatypes.JSON(snapshot),
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.Amount(),
			DiscountRate: item.DiscountRate.Decimal(),
			LineTotal:    item.LineTotal().Amount(),
			CreatedAt:    p.CreatedAt,
		})
	}
	return nil
}
