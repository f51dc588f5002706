package refdata

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// DecimalPlaces returns the smallest d such that increment*10^d >= 1.
// Only increments strictly between 0 and 1 can be resolved this way.
func DecimalPlaces(increment decimal.Decimal) (int, bool) {
	if !increment.IsPositive() || increment.GreaterThanOrEqual(one) {
		return 0, false
	}
	digits := 0
	for increment.Shift(int32(digits)).LessThan(one) {
		digits++
	}
	return digits, true
}

// ResolvePrecision prefers the explicit source value, then the digits derived
// from increment, then DefaultPrecision.
func ResolvePrecision(explicit *int, increment decimal.Decimal) int {
	if explicit != nil && *explicit >= 0 {
		return *explicit
	}
	if digits, ok := DecimalPlaces(increment); ok {
		return digits
	}
	return DefaultPrecision
}
