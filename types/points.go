package types

import (
	"fmt"
	"strconv"
)

// Points represents a point amount in the smallest point unit.
// All arithmetic is integer-only — no floating point.
//
// Points is used both for account balances (never negative) and for the
// amounts moved by a single charge or transfer (always positive).
type Points int64

// ZeroPoints is the zero point amount.
const ZeroPoints Points = 0

// NewPoints creates a Points value from a raw unit count.
func NewPoints(units int64) Points { return Points(units) }

// Arithmetic operations

// Add adds two Points values.
func (p Points) Add(other Points) Points { return p + other }

// Subtract subtracts another Points value.
func (p Points) Subtract(other Points) Points { return p - other }

// Negate returns the negative of the Points value.
func (p Points) Negate() Points { return -p }

// Comparison methods

// IsZero reports whether the amount is zero.
func (p Points) IsZero() bool { return p == 0 }

// IsPositive reports whether the amount is greater than zero.
func (p Points) IsPositive() bool { return p > 0 }

// IsNegative reports whether the amount is less than zero.
func (p Points) IsNegative() bool { return p < 0 }

// LessThan reports whether this amount is less than other.
func (p Points) LessThan(other Points) bool { return p < other }

// GreaterThan reports whether this amount is greater than other.
func (p Points) GreaterThan(other Points) bool { return p > other }

// Int64 returns the raw unit count.
func (p Points) Int64() int64 { return int64(p) }

// Formatting methods

// Format returns the amount with thousands separators, e.g. "30,000"
// for Points(30000). Used in human-readable ledger entry descriptions.
func (p Points) Format() string {
	isNegative := p < 0
	digits := strconv.FormatInt(int64(p), 10)
	if isNegative {
		digits = digits[1:]
	}

	var out []byte
	for i, c := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}

	if isNegative {
		return "-" + string(out)
	}
	return string(out)
}

// String returns a human-readable string, e.g. "30,000 pt".
func (p Points) String() string {
	return fmt.Sprintf("%s pt", p.Format())
}

// SumPoints calculates the sum of multiple Points values.
func SumPoints(values ...Points) Points {
	var total Points
	for _, v := range values {
		total += v
	}
	return total
}
