package planner

import "github.com/shopspring/decimal"

// RoundingPolicy turns a raw amount into a "nice" denomination.
type RoundingPolicy interface {
	// Nice rounds to the nearest denomination.
	Nice(v decimal.Decimal) int64
	// NiceDown rounds down to a denomination.
	NiceDown(v decimal.Decimal) int64
}

// Tier applies Step to amounts at or above Min.
type Tier struct {
	Min  int64
	Step int64
}

// TieredRounding picks the first tier whose Min the amount reaches.
// Tiers must be ordered by descending Min and end with a Min of 0.
type TieredRounding []Tier

// DefaultRounding scales the granularity with magnitude.
func DefaultRounding() TieredRounding {
	return TieredRounding{
		{Min: 10_000_000, Step: 5_000_000},
		{Min: 5_000_000, Step: 1_000_000},
		{Min: 1_000_000, Step: 500_000},
		{Min: 500_000, Step: 100_000},
		{Min: 0, Step: 50_000},
	}
}

func (r TieredRounding) step(n decimal.Decimal) decimal.Decimal {
	for _, t := range r {
		if n.GreaterThanOrEqual(decimal.NewFromInt(t.Min)) {
			return decimal.NewFromInt(t.Step)
		}
	}
	return decimal.NewFromInt(1)
}

// Nice rounds half away from zero to the tier step. Negative input is 0.
func (r TieredRounding) Nice(v decimal.Decimal) int64 {
	n := decimal.Max(decimal.Zero, v)
	step := r.step(n)
	return n.Div(step).Round(0).Mul(step).IntPart()
}

// NiceDown floors to the tier step. Negative input is 0.
func (r TieredRounding) NiceDown(v decimal.Decimal) int64 {
	n := decimal.Max(decimal.Zero, v)
	step := r.step(n)
	return n.Div(step).Floor().Mul(step).IntPart()
}
