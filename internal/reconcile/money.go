package reconcile

import "github.com/shopspring/decimal"

// sameCents reports whether a and b agree once their difference is rounded
// to two decimal places. Every total comparison goes through here.
func sameCents(a, b float64) bool {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).IsZero()
}

// round2 rounds half away from zero to two decimal places
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
