package proposal

import (
	"fmt"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/shopspring/decimal"
)

// LineRequest asks for quantity units of one product at an optional discount
type LineRequest struct {
	ProductKey   string
	Quantity     int
	DiscountRate decimal.Decimal
}

// DiscountRequest is an optional proposal-level discount, either a rate or an amount
type DiscountRequest struct {
	Rate   *decimal.Decimal
	Amount *decimal.Decimal
}

// AssemblyRequest is the input of Assemble
type AssemblyRequest struct {
	ClientRef string
	Title     string
	Lines     []LineRequest
	Discount  *DiscountRequest
}

// Keys returns the normalized product keys referenced by the request
func (r AssemblyRequest) Keys() []string {
	keys := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		keys = append(keys, catalog.NormalizeKey(l.ProductKey))
	}
	return keys
}

// Assemble prices the request against a snapshot of approved entries read once
// before the call. Lines are validated in request order and the first failure
// is returned; the snapshot is never modified.
func Assemble(req AssemblyRequest, approved []catalog.CatalogEntry) (*Proposal, error) {
	clientRef := strings.TrimSpace(req.ClientRef)
	if clientRef == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "client reference cannot be empty")
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "a proposal needs at least one line")
	}

	snapshot := make(map[string]*catalog.CatalogEntry, len(approved))
	for i := range approved {
		if approved[i].IsApproved() {
			snapshot[approved[i].Key] = &approved[i]
		}
	}

	items := make([]LineItem, 0, len(req.Lines))
	var currency valueobject.Currency
	for i, line := range req.Lines {
		key := catalog.NormalizeKey(line.ProductKey)
		if line.Quantity <= 0 {
			return nil, shared.NewInvalidQuantityError(key, line.Quantity).WithDetail("line", i)
		}
		rate, err := valueobject.NewRate(line.DiscountRate)
		if err != nil {
			return nil, shared.ErrInvalidDiscount.WithDetail("product_key", key).WithDetail("line", i)
		}
		entry, ok := snapshot[key]
		if !ok {
			return nil, shared.NewUnapprovedProductError(key).WithDetail("line", i)
		}
		price, err := unitPrice(entry)
		if err != nil {
			return nil, err
		}
		if currency == "" {
			currency = price.Currency()
		} else if price.Currency() != currency {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("product %s is priced in %s but the proposal is in %s", key, price.Currency(), currency))
		}
		items = append(items, LineItem{
			ProductKey:   key,
			Product:      SnapshotOf(entry),
			Quantity:     line.Quantity,
			UnitPrice:    price,
			DiscountRate: rate,
		})
	}

	p := &Proposal{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientRef:         clientRef,
		Title:             strings.TrimSpace(req.Title),
		Currency:          currency,
		Items:             items,
	}

	if req.Discount != nil {
		discount, err := buildDiscount(*req.Discount, p.Subtotal())
		if err != nil {
			return nil, err
		}
		p.Discount = discount
	}

	p.RecordEvent(NewProposalAssembledEvent(p))
	return p, nil
}

func unitPrice(entry *catalog.CatalogEntry) (valueobject.Money, error) {
	amount, err := entry.UnitPrice()
	if err != nil {
		return valueobject.Money{}, err
	}
	if amount.IsNegative() {
		return valueobject.Money{}, shared.NewDomainError(shared.CodeInvalidInput, "catalog entry "+entry.Key+" has a negative price")
	}
	currency := valueobject.Currency(strings.ToUpper(strings.TrimSpace(entry.Field(verification.FieldCurrency))))
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return valueobject.NewMoney(amount, currency)
}

func buildDiscount(req DiscountRequest, subtotal valueobject.Money) (*Discount, error) {
	switch {
	case req.Rate != nil && req.Amount != nil:
		return nil, shared.ErrInvalidDiscount.WithDetail("reason", "give either a rate or an amount")
	case req.Rate != nil:
		rate, err := valueobject.NewRate(*req.Rate)
		if err != nil {
			return nil, shared.ErrInvalidDiscount.WithDetail("rate", req.Rate.String())
		}
		return &Discount{Kind: DiscountRate, Rate: rate, Amount: valueobject.Zero(subtotal.Currency())}, nil
	case req.Amount != nil:
		if req.Amount.IsNegative() || req.Amount.GreaterThan(subtotal.Amount()) {
			return nil, shared.ErrInvalidDiscount.WithDetail("amount", req.Amount.String())
		}
		amount, err := valueobject.NewMoney(*req.Amount, subtotal.Currency())
		if err != nil {
			return nil, err
		}
		return &Discount{Kind: DiscountAmount, Rate: valueobject.ZeroRate(), Amount: amount}, nil
	}
	return nil, nil
}
