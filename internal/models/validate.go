package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateRaceCard checks the structural requirements of a race card.
// Scores and odds are not checked here; the pipeline sanitizes them per horse.
func ValidateRaceCard(race *RaceCard) error {
	if race == nil {
		return ErrRaceRequired
	}

	if err := structValidator().Struct(race); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRaceCard, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRaceCard, err)
	}

	for _, h := range race.Horses {
		if strings.TrimSpace(h.HorseName) == "" {
			return fmt.Errorf("%w: horse #%d has a blank name", ErrInvalidRaceCard, h.ProgramNumber)
		}
	}

	if dupes := race.DuplicateProgramNumbers(); len(dupes) > 0 {
		return fmt.Errorf("%w: %v", ErrDuplicateProgramNumber, dupes)
	}

	return nil
}
