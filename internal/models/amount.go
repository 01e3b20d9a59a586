package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount cannot be parsed
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a monetary value with two fractional digits. It round-trips
// NUMERIC columns through shopspring/decimal so no float drift is introduced.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal value
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// ParseAmount parses a decimal string such as "12.50"
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

// MustAmount parses s and panics on failure. Intended for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

// Equal reports whether both amounts hold the same value
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

// HasCents reports whether the amount needs no more than two fractional digits
func (a Amount) HasCents() bool {
	return a.Decimal.Equal(a.Decimal.Round(2))
}

// String renders the amount with exactly two fractional digits
func (a Amount) String() string {
	return a.StringFixed(2)
}

// MarshalJSON renders the amount as a bare JSON number, e.g. 12.50
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	a.Decimal = d
	return nil
}
