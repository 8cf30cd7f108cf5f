// README: Common money value object used across modules.
package types

import "github.com/shopspring/decimal"

// DefaultCurrency is the platform settlement currency.
const DefaultCurrency = "THB"

// Money is a fixed-point amount. Amounts are never represented as binary
// floats anywhere in the system; repeated additions must not drift.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Baht builds a whole-unit THB amount.
func Baht(v int64) Money {
	return Money{Amount: decimal.NewFromInt(v), Currency: DefaultCurrency}
}

// FromDecimal wraps a decimal amount in the default currency.
func FromDecimal(d decimal.Decimal) Money {
	return Money{Amount: d, Currency: DefaultCurrency}
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}
}

func (m Money) LessThan(o Money) bool {
	return m.Amount.LessThan(o.Amount)
}

func (m Money) Equal(o Money) bool {
	return m.Amount.Equal(o.Amount)
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}
