package probability

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const residualEpsilon = 1e-12

// EnforceBounds returns a copy of p normalized to sum to one with every value
// in [lo, hi].
//
// Values outside the bounds are pinned to the nearest bound and the surplus or
// deficit is spread across the free values in proportion to their size. A pass
// can push a free value out of bounds, so passes repeat up to
// MaxBoundIterations. Whatever residual remains is then absorbed by the slack
// each value has towards the violated side, which keeps the ordering of the
// input. When the bounds cannot be met (n*lo > 1 or n*hi < 1) the vector is
// only normalized.
func EnforceBounds(p []float64, lo, hi float64) []float64 {
	out := sanitizeProbabilities(p)
	n := len(out)
	switch n {
	case 0:
		return out
	case 1:
		out[0] = 1
		return out
	}

	normalizeInPlace(out)
	if !boundsFeasible(n, lo, hi) {
		return out
	}

	pinned := make([]bool, n)
	for iter := 0; iter < MaxBoundIterations; iter++ {
		if !pinOutOfBounds(out, pinned, lo, hi) {
			break
		}

		var pinnedSum, freeSum float64
		free := 0
		for i, v := range out {
			if pinned[i] {
				pinnedSum += v
				continue
			}
			freeSum += v
			free++
		}
		if free == 0 || freeSum <= 0 {
			break
		}

		factor := (1 - pinnedSum) / freeSum
		if factor <= 0 {
			break
		}
		for i := range out {
			if !pinned[i] {
				out[i] *= factor
			}
		}
	}

	settleResidual(out, lo, hi)
	return out
}

func boundsFeasible(n int, lo, hi float64) bool {
	if lo < 0 || hi <= 0 || lo > hi {
		return false
	}
	return float64(n)*lo <= 1+residualEpsilon && float64(n)*hi >= 1-residualEpsilon
}

// pinOutOfBounds clamps free values and reports whether any were pinned.
func pinOutOfBounds(p []float64, pinned []bool, lo, hi float64) bool {
	changed := false
	for i, v := range p {
		if pinned[i] {
			continue
		}
		switch {
		case v < lo:
			p[i] = lo
			pinned[i] = true
			changed = true
		case v > hi:
			p[i] = hi
			pinned[i] = true
			changed = true
		}
	}
	return changed
}

// settleResidual clips every value into [lo, hi] and hands the remaining
// mass to values in proportion to their distance from the bound being
// approached.
func settleResidual(p []float64, lo, hi float64) {
	for i, v := range p {
		p[i] = math.Min(hi, math.Max(lo, v))
	}

	residual := 1 - floats.Sum(p)
	if math.Abs(residual) <= residualEpsilon {
		return
	}

	slack := make([]float64, len(p))
	for i, v := range p {
		if residual > 0 {
			slack[i] = hi - v
		} else {
			slack[i] = v - lo
		}
	}
	total := floats.Sum(slack)
	if total <= 0 {
		normalizeInPlace(p)
		return
	}
	for i := range p {
		p[i] += residual * slack[i] / total
	}
}

// sanitizeProbabilities copies p with non-finite and negative values set to 0.
func sanitizeProbabilities(p []float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		out[i] = v
	}
	return out
}

// normalizeInPlace scales p to sum to one; an all-zero vector becomes uniform.
func normalizeInPlace(p []float64) {
	sum := floats.Sum(p)
	if sum <= 0 || math.IsInf(sum, 0) {
		for i := range p {
			p[i] = 1 / float64(len(p))
		}
		return
	}
	floats.Scale(1/sum, p)
}
