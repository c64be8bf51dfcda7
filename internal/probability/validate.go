package probability

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrProbabilitySumDrift indicates a distribution does not sum to one
	ErrProbabilitySumDrift = errors.New("probability sum drift")
	// ErrProbabilityOutOfBounds indicates a value outside [min, max]
	ErrProbabilityOutOfBounds = errors.New("probability out of bounds")
	// ErrNonFiniteProbability indicates a NaN or infinite value
	ErrNonFiniteProbability = errors.New("non-finite probability")
)

// ValidateDistribution checks the distribution invariants and returns a hard
// failure on the first violation. A violation indicates a defect in the
// conversion math; production callers never need to handle it.
//
// Bounds are only checked when they are satisfiable for the field size.
func ValidateDistribution(p []float64, lo, hi, tolerance float64) error {
	if len(p) == 0 {
		return nil
	}

	sum := 0.0
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: index %d is %v", ErrNonFiniteProbability, i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > tolerance {
		return fmt.Errorf("%w: sum %.6f exceeds tolerance %.0e", ErrProbabilitySumDrift, sum, tolerance)
	}

	if !boundsFeasible(len(p), lo, hi) {
		return nil
	}
	for i, v := range p {
		if v < lo-tolerance || v > hi+tolerance {
			return fmt.Errorf("%w: index %d = %.6f outside [%.4f, %.4f]", ErrProbabilityOutOfBounds, i, v, lo, hi)
		}
	}
	return nil
}

// ValidateOutput checks p against this config's bounds with SumTolerance
func (c SoftmaxConfig) ValidateOutput(p []float64) error {
	return ValidateDistribution(p, c.MinProbability, c.MaxProbability, SumTolerance)
}
