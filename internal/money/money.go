package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how amounts are snapped to the configured precision.
type RoundingMode string

const (
	// RoundHalfUp rounds half away from zero (0.005 -> 0.01). Default.
	RoundHalfUp RoundingMode = "half-up"
	// RoundHalfEven applies banker's rounding (0.005 -> 0.00, 0.015 -> 0.02).
	RoundHalfEven RoundingMode = "half-even"
	// RoundDown truncates toward zero.
	RoundDown RoundingMode = "down"
)

// ParseRoundingMode maps a configuration string to a RoundingMode.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoundHalfUp:
		return RoundHalfUp, nil
	case RoundHalfEven:
		return RoundHalfEven, nil
	case RoundDown:
		return RoundDown, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// Amount is a fixed-precision monetary value. It wraps decimal.Decimal so
// arithmetic is exact scaled-integer math, never binary floating point.
// The zero value is a usable zero amount.
type Amount struct {
	dec decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// Parse builds an Amount from its decimal string form ("100.50").
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// MustParse is Parse for literals in tests and wiring code. Panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromFloat converts a float, rejecting NaN and infinities before the value
// can reach any balance computation.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}, fmt.Errorf("amount %v is not finite", f)
	}
	return Amount{dec: decimal.NewFromFloat(f)}, nil
}

// FromInt converts whole units.
func FromInt(i int64) Amount {
	return Amount{dec: decimal.NewFromInt(i)}
}

// FromDecimal wraps an existing decimal value.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{dec: d}
}

func (a Amount) Add(b Amount) Amount { return Amount{dec: a.dec.Add(b.dec)} }
func (a Amount) Sub(b Amount) Amount { return Amount{dec: a.dec.Sub(b.dec)} }
func (a Amount) Neg() Amount         { return Amount{dec: a.dec.Neg()} }
func (a Amount) Abs() Amount         { return Amount{dec: a.dec.Abs()} }

func (a Amount) IsZero() bool     { return a.dec.IsZero() }
func (a Amount) IsPositive() bool { return a.dec.IsPositive() }
func (a Amount) IsNegative() bool { return a.dec.IsNegative() }

// Cmp returns -1, 0 or 1 comparing a to b.
func (a Amount) Cmp(b Amount) int           { return a.dec.Cmp(b.dec) }
func (a Amount) Equal(b Amount) bool        { return a.dec.Equal(b.dec) }
func (a Amount) LessThan(b Amount) bool     { return a.dec.LessThan(b.dec) }
func (a Amount) GreaterThan(b Amount) bool  { return a.dec.GreaterThan(b.dec) }

// Round snaps the amount to the given number of decimal places using the
// provided mode. Unknown modes fall back to half-up.
func (a Amount) Round(places int32, mode RoundingMode) Amount {
	switch mode {
	case RoundHalfEven:
		return Amount{dec: a.dec.RoundBank(places)}
	case RoundDown:
		return Amount{dec: a.dec.Truncate(places)}
	default:
		return Amount{dec: a.dec.Round(places)}
	}
}

// Decimal exposes the underlying decimal for store drivers.
func (a Amount) Decimal() decimal.Decimal { return a.dec }

// String renders the amount in its minimal decimal form.
func (a Amount) String() string { return a.dec.String() }

// StringFixed renders the amount with exactly the given decimal places.
func (a Amount) StringFixed(places int32) string { return a.dec.StringFixed(places) }

// Format renders a signed, fixed-precision, currency-suffixed amount,
// e.g. "+100.50 USD" or "-50.00 USD".
func (a Amount) Format(places int32, currency string) string {
	sign := ""
	if !a.dec.IsNegative() {
		sign = "+"
	}
	return sign + a.dec.StringFixed(places) + " " + currency
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.dec.MarshalJSON()
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.dec.UnmarshalJSON(data)
}
