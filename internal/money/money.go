// Package money converts between user-facing decimal amounts and the integer
// cents stored in the database.
package money

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAmount indicates an amount that cannot be represented as cents.
var ErrInvalidAmount = errors.New("invalid money amount")

// maxAmount bounds user input so the cents conversion cannot overflow int64.
const maxAmount = 9e16

// ToCents converts a decimal amount (like 12.50) to cents as int64.
// Rejects NaN, infinities, negatives and values large enough to overflow.
func ToCents(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	if amount > maxAmount {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	return int64(math.Round(amount * 100.0)), nil
}

// FromCents converts cents back to the decimal amount used in API responses.
func FromCents(cents int64) float64 {
	return float64(cents) / 100.0
}

// FormatCents renders cents as a plain decimal string without going through
// floating point, e.g. 1250 -> "12.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
