package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/handicapper/internal/betting"
	"github.com/yourusername/handicapper/internal/models"
)

// evaluationNamespace scopes evaluation fingerprints.
var evaluationNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("handicapper.evaluation"))

// Fingerprint returns a deterministic ID for a race, bankroll and filter set.
// Identical inputs always map to the same ID, so it doubles as a cache key
// and a replay identifier.
func Fingerprint(race *models.RaceCard, bankroll float64, filters betting.Filters) uuid.UUID {
	var b strings.Builder
	fmt.Fprintf(&b, "race=%q|%q|%d\n", race.RaceID, race.Track, race.RaceNumber)
	for _, h := range race.Horses {
		fmt.Fprintf(&b, "horse=%d|%q|%v|%v|%q\n", h.ProgramNumber, h.HorseName, h.BaseScore, h.FinalScore, h.MorningLineOdds)
	}
	fmt.Fprintf(&b, "bankroll=%v\nfilters=%v|%v\n", bankroll, filters.MinEV, filters.MinOverlayPercent)
	return uuid.NewSHA1(evaluationNamespace, []byte(b.String()))
}
