package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.50")))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString(" 123.45 ", ZAR)
		require.NoError(t, err)
		assert.Equal(t, "123.45", m.StringFixed(2))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("10.00")
	b := MustMoney("5.25")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "15.25", sum.StringFixed(2))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "4.75", diff.StringFixed(2))

	assert.Equal(t, "30.00", a.MultiplyByInt(3).StringFixed(2))

	t.Run("currency mismatch", func(t *testing.T) {
		eur, _ := NewMoneyFromString("1", EUR)
		_, err := a.Add(eur)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
		_, err = a.Subtract(eur)
		assert.EqualError(t, err, "currency mismatch: cannot subtract USD and EUR")
		_, err = a.Compare(eur)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})
}

func TestMoney_RoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.345", "2.35"},
		{"2.355", "2.36"},
		{"2.125", "2.13"},
		{"-2.125", "-2.13"},
		{"2.124", "2.12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MustMoney(tt.in).RoundCents().StringFixed(2))
		})
	}
}

func TestMoney_ApplyRate(t *testing.T) {
	m := MustMoney("200.00")
	rate, err := NewRateFromString("0.15")
	require.NoError(t, err)
	assert.Equal(t, "170.00", m.ApplyRate(rate).StringFixed(2))
	assert.True(t, m.ApplyRate(ZeroRate()).Equals(m))
}

func TestMoney_Comparisons(t *testing.T) {
	cmp, err := MustMoney("1").Compare(MustMoney("2"))
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = MustMoney("2.0").Compare(MustMoney("2"))
	require.NoError(t, err)
	assert.Zero(t, cmp)

	assert.True(t, MustMoney("1.0").Equals(MustMoney("1.00")))
	assert.True(t, Zero(USD).IsZero())
	assert.True(t, MustMoney("-1").IsNegative())
	assert.True(t, MustMoney("1").IsPositive())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustMoney("35"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"35.00","currency":"USD"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.5"}`), &m))
	assert.Equal(t, USD, m.Currency())
	assert.Equal(t, "12.50", m.StringFixed(2))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"x"}`), &m))
}

func TestMoney_String(t *testing.T) {
	m, err := NewMoneyFromString("1500", ZAR)
	require.NoError(t, err)
	assert.Equal(t, "1500.00 ZAR", m.String())
}

func TestRate(t *testing.T) {
	_, err := NewRateFromString("1.01")
	assert.ErrorIs(t, err, ErrRateOutOfRange)
	_, err = NewRateFromString("-0.01")
	assert.ErrorIs(t, err, ErrRateOutOfRange)

	r, err := NewRateFromString("1")
	require.NoError(t, err)
	assert.Equal(t, "1.0000", r.String())

	var parsed Rate
	require.NoError(t, json.Unmarshal([]byte(`0.2`), &parsed))
	assert.Equal(t, "0.2000", parsed.String())
	assert.Error(t, json.Unmarshal([]byte(`"2"`), &parsed))
}
