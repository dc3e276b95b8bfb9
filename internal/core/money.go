// Package core provides money parsing and handling utilities.
//
// Amounts are fixed point with two decimal places. Arithmetic goes through
// shopspring/decimal; persistence uses integer cents.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	// Amounts carry at most twelve digits, two of them decimal.
	amountLimit = decimal.New(1, 10)
)

// Money is a two-decimal fixed point amount.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoneyFromCents builds an amount from integer cents.
func NewMoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -moneyPlaces)}
}

// NewMoneyFromDecimal rounds d to two places.
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Round(moneyPlaces)}
}

// MustParseMoney is ParseMoney for constants and tests.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Signs are accepted; callers
// decide whether a negative amount is valid (initial balances may be).
// Magnitudes of 10^10 and above are rejected.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34
//	ParseMoney("12,34")  -> 12.34
//	ParseMoney("12.345") -> 12.35
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	m := NewMoneyFromDecimal(d)
	if !m.InRange() {
		return Zero, ErrInvalidAmount
	}
	return m, nil
}

// InRange reports whether |m| stays below 10^10, the largest magnitude a
// stored amount may have.
func (m Money) InRange() bool {
	return m.d.Abs().Cmp(amountLimit) < 0
}

// Cents returns the amount in integer cents.
func (m Money) Cents() int64 {
	return m.d.Shift(moneyPlaces).Round(0).IntPart()
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// String renders the amount with exactly two decimals, e.g. "120.00".
func (m Money) String() string { return m.d.StringFixed(moneyPlaces) }

// MarshalJSON encodes the amount as a string to keep precision.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.34" and 12.34.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*m = Zero
		return nil
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Percentage returns part / whole x 100. A zero whole yields 0.
func Percentage(part, whole Money) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.d.Div(whole.d).Mul(hundred).InexactFloat64()
}
