package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	ZAR Currency = "ZAR"
)

// DefaultCurrency applies to catalog prices that carry no currency field
const DefaultCurrency = USD

// MoneyPlaces is the precision monetary results are rounded to
const MoneyPlaces int32 = 2

// ErrCurrencyMismatch is returned when two amounts in different currencies meet
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an exact decimal amount in one currency. The zero value has no
// currency and is only useful as a placeholder.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString parses a plain decimal such as "10.00"; surrounding
// whitespace is ignored
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currency)
}

// MustMoney parses amount in DefaultCurrency and panics on bad input
func MustMoney(amount string) Money {
	m, err := NewMoneyFromString(amount, DefaultCurrency)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) sameCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: cannot %s %s and %s", ErrCurrencyMismatch, op, m.currency, other.currency)
	}
	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency("add", other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Compare returns -1, 0 or +1 as m is less than, equal to or greater than other
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Multiply scales the amount without rounding
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

func (m Money) MultiplyByInt(factor int64) Money {
	return m.Multiply(decimal.NewFromInt(factor))
}

// ApplyRate takes rate off the amount: 200 at 0.15 is 170
func (m Money) ApplyRate(rate Rate) Money {
	return m.Multiply(decimal.NewFromInt(1).Sub(rate.Decimal()))
}

// Round rounds half away from zero
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

func (m Money) RoundCents() Money {
	return m.Round(MoneyPlaces)
}

// Equals compares numerically, so 1.0 equals 1.00
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

func (m Money) String() string {
	return m.amount.StringFixed(MoneyPlaces) + " " + string(m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON writes the amount as a string fixed to cents
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(MoneyPlaces), Currency: m.currency})
}

// UnmarshalJSON accepts a missing currency as DefaultCurrency
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", v.Amount, err)
	}
	if v.Currency == "" {
		v.Currency = DefaultCurrency
	}
	*m = Money{amount: amount, currency: v.Currency}
	return nil
}
