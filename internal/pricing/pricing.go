// Package pricing converts token counts into monetary cost. Cost is a pure
// function of tokens: (tokens / 1000) * rate, rounded to 6 decimal places.
// The arithmetic is done with shopspring/decimal so the stored value is the
// exact rounded amount and aggregate sums never drift from token counts.
package pricing

import "github.com/shopspring/decimal"

// DefaultRatePer1K is the default USD rate per 1000 tokens.
const DefaultRatePer1K = 0.002

// costScale is the number of decimal places stored on a record.
const costScale = 6

// Calculator computes interaction cost at a fixed per-1000-token rate.
type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator returns a Calculator for the given per-1k-token rate.
// Non-positive rates fall back to the default.
func NewCalculator(ratePer1K float64) Calculator {
	if ratePer1K <= 0 {
		ratePer1K = DefaultRatePer1K
	}
	return Calculator{rate: decimal.NewFromFloat(ratePer1K)}
}

// Cost returns the cost of tokens at the configured rate, rounded to
// 6 decimal places. Negative token counts cost nothing.
func (c Calculator) Cost(tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	d := decimal.NewFromInt(int64(tokens)).
		Div(decimal.NewFromInt(1000)).
		Mul(c.rate).
		Round(costScale)
	f, _ := d.Float64()
	return f
}
