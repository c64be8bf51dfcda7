package models

import "fmt"

// RaceCard is the set of active horses for a single race
type RaceCard struct {
	RaceID     string            `json:"race_id" yaml:"race_id"`
	Track      string            `json:"track" yaml:"track"`
	RaceNumber int               `json:"race_number" yaml:"race_number" validate:"gte=0"`
	Horses     []HorseScoreInput `json:"horses" yaml:"horses" validate:"dive"`
}

// FieldSize returns the number of active horses
func (r *RaceCard) FieldSize() int {
	return len(r.Horses)
}

// Label returns a human readable race identifier for logs
func (r *RaceCard) Label() string {
	switch {
	case r.RaceID != "":
		return r.RaceID
	case r.Track != "":
		return fmt.Sprintf("%s R%d", r.Track, r.RaceNumber)
	default:
		return fmt.Sprintf("R%d", r.RaceNumber)
	}
}

// DuplicateProgramNumbers returns program numbers that appear more than once, in first-seen order
func (r *RaceCard) DuplicateProgramNumbers() []int {
	seen := make(map[int]int, len(r.Horses))
	var dupes []int
	for _, h := range r.Horses {
		seen[h.ProgramNumber]++
		if seen[h.ProgramNumber] == 2 {
			dupes = append(dupes, h.ProgramNumber)
		}
	}
	return dupes
}
