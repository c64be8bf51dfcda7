package models

import "errors"

// Custom errors
var (
	ErrRaceRequired           = errors.New("race card is required")
	ErrInvalidRaceCard        = errors.New("invalid race card")
	ErrDuplicateProgramNumber = errors.New("duplicate program number")
)
