package probability

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ImpliedProbability returns the naive market probability 1/decimalOdds.
// Decimal odds of 1.0 or less carry no usable price and yield 0.
func ImpliedProbability(decimalOdds float64) float64 {
	if math.IsNaN(decimalOdds) || math.IsInf(decimalOdds, 0) || decimalOdds <= 1 {
		return 0
	}
	return 1 / decimalOdds
}

// Overround returns the sum of naive implied probabilities before normalization
func Overround(implied []float64) float64 {
	return floats.Sum(sanitizeProbabilities(implied))
}

// NormalizeMarket removes the overround by dividing each implied probability
// by the field total. Relative ordering is preserved. A field with no usable
// prices is returned as a uniform distribution.
func NormalizeMarket(implied []float64) []float64 {
	out := sanitizeProbabilities(implied)
	if len(out) == 0 {
		return out
	}
	normalizeInPlace(out)
	return out
}

// InRange reports whether an overround is within the configured sanity bounds
func (m MarketConfig) InRange(overround float64) bool {
	return overround >= m.MinOverround && overround <= m.MaxOverround
}

// TakeoutPercent returns (overround - 1) * 100 for a plausible overround and
// the configured default takeout otherwise. The flag reports which was used.
func (m MarketConfig) TakeoutPercent(overround float64) (float64, bool) {
	if !m.InRange(overround) {
		return m.DefaultTakeout * 100, false
	}
	return (overround - 1) * 100, true
}
