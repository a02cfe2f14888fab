package money

import "fmt"

// Money is an amount in integer minor currency units (cents). The engine
// never does arithmetic on floating-point currency; conversion to display
// decimals happens at the API edge only.
type Money int64

// FromCents wraps a raw cent amount.
func FromCents(cents int64) Money {
	return Money(cents)
}

// Cents returns the raw cent amount.
func (m Money) Cents() int64 {
	return int64(m)
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m < 0
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return m - other
}

// Percent computes pct% of m on integer cents, rounding half-up.
// Percentages are whole numbers in 0..100.
func (m Money) Percent(pct int) Money {
	if m < 0 {
		// Negative amounts round away from zero so that -Percent(x) == Percent(-x).
		return -(-m).Percent(pct)
	}
	return Money((int64(m)*int64(pct) + 50) / 100)
}

// String renders the amount as a decimal string, e.g. 12345 -> "123.45".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
