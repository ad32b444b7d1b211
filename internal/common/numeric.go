package common

import "github.com/shopspring/decimal"

// RoundCents rounds a currency amount half away from zero to two decimals.
// Decimal arithmetic avoids 0.005 boundaries drifting on float inputs like 9.995.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Cap returns v limited to at most limit.
func Cap(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

// Within reports whether |a - b| <= tolerance.
func Within(a, b, tolerance float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
