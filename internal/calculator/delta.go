package calculator

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PercentDelta returns (value-reference)/reference*100, rounded to 6 places.
// A zero reference yields 0.
func PercentDelta(value, reference float64) float64 {
	ref := decimal.NewFromFloat(reference)
	if ref.IsZero() {
		return 0
	}
	d := decimal.NewFromFloat(value).Sub(ref).Div(ref).Mul(hundred).Round(6)
	f, _ := d.Float64()
	return f
}
