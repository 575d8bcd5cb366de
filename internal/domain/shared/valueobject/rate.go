package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RatePlaces is the precision savings rates are reported with
const RatePlaces int32 = 4

// ErrRateOutOfRange is returned for rates outside [0, 1]
var ErrRateOutOfRange = errors.New("rate must be between 0 and 1")

// Rate is a fraction in [0, 1], e.g. a discount of 0.15 means 15% off
type Rate struct {
	value decimal.Decimal
}

// NewRate validates that d lies in [0, 1]
func NewRate(d decimal.Decimal) (Rate, error) {
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return Rate{}, fmt.Errorf("%w: %s", ErrRateOutOfRange, d.String())
	}
	return Rate{value: d}, nil
}

// NewRateFromString parses and validates a rate
func NewRateFromString(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate string: %w", err)
	}
	return NewRate(d)
}

// ZeroRate is a rate of nothing
func ZeroRate() Rate {
	return Rate{value: decimal.Zero}
}

// Decimal returns the underlying fraction
func (r Rate) Decimal() decimal.Decimal {
	return r.value
}

// IsZero reports whether the rate is 0
func (r Rate) IsZero() bool {
	return r.value.IsZero()
}

// String renders the rate with RatePlaces decimals
func (r Rate) String() string {
	return r.value.StringFixed(RatePlaces)
}

// MarshalJSON renders the rate as a decimal string
func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value.String())
}

// UnmarshalJSON accepts a JSON string or number
func (r *Rate) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid rate: %w", err)
	}
	parsed, err := NewRate(d)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
