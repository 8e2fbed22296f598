package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for amounts
const MoneyScale = 2

var (
	ErrAmountNotPositive = errors.New("amount must be greater than 0")
	ErrAmountPrecision   = errors.New("amount must have at most 2 decimal places")
	ErrAmountTooLarge    = errors.New("amount is too large")
)

// maxCents bounds amounts so that per-user sums cannot overflow int64
var maxCents = decimal.New(1, 15) // 10^13 currency units

// ToCents converts a decimal amount to minor units. Amounts must be positive
// and carry no more than two fractional digits; nothing is rounded.
func ToCents(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrAmountNotPositive
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return 0, ErrAmountPrecision
	}
	cents := amount.Shift(MoneyScale)
	if cents.GreaterThanOrEqual(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return cents.IntPart(), nil
}

// FromCents converts minor units back to a decimal with two fractional digits
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyScale)
}

// Money is an amount in minor units. It serialises as a decimal string with
// exactly two fractional digits, e.g. "-12.50".
type Money int64

// Decimal returns m as a decimal value
func (m Money) Decimal() decimal.Decimal {
	return FromCents(int64(m))
}

func (m Money) String() string {
	return m.Decimal().StringFixed(MoneyScale)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or string with at most two fractional digits
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	if !d.Equal(d.Truncate(MoneyScale)) {
		return ErrAmountPrecision
	}
	*m = Money(d.Shift(MoneyScale).IntPart())
	return nil
}
