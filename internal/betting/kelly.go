package betting

import "math"

// KellyFraction returns the full-Kelly bankroll fraction for a win bet:
// f = (b*p - q) / b with b = decimalOdds - 1 and q = 1 - p.
// It is 0 for unusable odds and may be negative for a losing proposition.
func KellyFraction(p, decimalOdds float64) float64 {
	b := decimalOdds - 1
	if b <= 0 || math.IsNaN(b) || math.IsInf(b, 0) || math.IsNaN(p) {
		return 0
	}
	return (b*p - (1 - p)) / b
}

// clip bounds a Kelly fraction to [0, cap]
func clip(f, cap float64) float64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	return math.Min(f, cap)
}
