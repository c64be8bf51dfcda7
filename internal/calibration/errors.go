// Package calibration fits and applies Platt scaling to model win probabilities.
package calibration

import "errors"

var (
	// ErrInsufficientSamples indicates too few settled samples to fit
	ErrInsufficientSamples = errors.New("insufficient calibration samples")

	// ErrDegenerateSamples indicates samples with a single outcome class
	ErrDegenerateSamples = errors.New("calibration samples contain only winners or only losers")

	// ErrInvalidSample indicates a sample probability outside (0, 1)
	ErrInvalidSample = errors.New("invalid calibration sample")

	// ErrFitFailed indicates the optimizer did not converge
	ErrFitFailed = errors.New("calibration fit failed")

	// ErrInvalidParams indicates non-finite or non-increasing Platt parameters
	ErrInvalidParams = errors.New("invalid calibration parameters")
)
