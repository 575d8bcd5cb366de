package proposal

import (
	"maps"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
)

// ProductSnapshot is the denormalized copy of a catalog entry taken at assembly
// time, so a proposal survives later catalog changes or deletion
type ProductSnapshot struct {
	Key     string            `json:"key"`
	Name    string            `json:"name"`
	Fields  map[string]string `json:"fields"`
	Version int               `json:"version"`
}

// SnapshotOf copies the parts of an entry a proposal keeps
func SnapshotOf(e *catalog.CatalogEntry) ProductSnapshot {
	return ProductSnapshot{
		Key:     e.Key,
		Name:    e.Name(),
		Fields:  maps.Clone(e.Fields),
		Version: e.Version,
	}
}

// LineItem is one priced product line. The line total is always derived.
type LineItem struct {
	ProductKey   string            `json:"product_key"`
	Product      ProductSnapshot   `json:"product"`
	Quantity     int               `json:"quantity"`
	UnitPrice    valueobject.Money `json:"unit_price"`
	DiscountRate valueobject.Rate  `json:"discount_rate"`
}

// LineTotal is quantity x unit price x (1 - discount), rounded to cents
func (l LineItem) LineTotal() valueobject.Money {
	return l.UnitPrice.MultiplyByInt(int64(l.Quantity)).ApplyRate(l.DiscountRate).RoundCents()
}

// DiscountKind selects how a proposal-level discount is expressed
type DiscountKind string

const (
	DiscountRate   DiscountKind = "rate"
	DiscountAmount DiscountKind = "amount"
)

// Discount is an optional proposal-level reduction applied once to the subtotal
type Discount struct {
	Kind   DiscountKind      `json:"kind"`
	Rate   valueobject.Rate  `json:"rate"`
	Amount valueobject.Money `json:"amount"`
}

// Proposal is an assembled, immutable priced offer for a client
type Proposal struct {
	shared.BaseAggregateRoot
	ClientRef string               `json:"client_ref"`
	Title     string               `json:"title,omitempty"`
	Currency  valueobject.Currency `json:"currency"`
	Items     []LineItem           `json:"items"`
	Discount  *Discount            `json:"discount,omitempty"`
}

// Subtotal is the exact sum of line totals
func (p *Proposal) Subtotal() valueobject.Money {
	sum := valueobject.Zero(p.Currency)
	for _, item := range p.Items {
		// line currencies are checked at assembly
		sum, _ = sum.Add(item.LineTotal())
	}
	return sum
}

// DiscountAmount is the proposal-level reduction, zero when none applies
func (p *Proposal) DiscountAmount() valueobject.Money {
	if p.Discount == nil {
		return valueobject.Zero(p.Currency)
	}
	subtotal := p.Subtotal()
	switch p.Discount.Kind {
	case DiscountRate:
		return subtotal.Multiply(p.Discount.Rate.Decimal()).RoundCents()
	case DiscountAmount:
		return p.Discount.Amount.RoundCents()
	}
	return valueobject.Zero(p.Currency)
}

// Total is the subtotal less the proposal-level discount
func (p *Proposal) Total() valueobject.Money {
	total, _ := p.Subtotal().Subtract(p.DiscountAmount())
	return total
}

// TotalQuantity sums the quantities of all lines
func (p *Proposal) TotalQuantity() int {
	n := 0
	for _, item := range p.Items {
		n += item.Quantity
	}
	return n
}
