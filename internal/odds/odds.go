// Package odds parses morning-line odds into decimal odds.
package odds

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnparseableOdds indicates a morning-line string in an unsupported format
	ErrUnparseableOdds = errors.New("unparseable morning line odds")

	fractionalPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

// EvenMoney is the decimal price of 1-1 odds
const EvenMoney = 2.0

// ParseMorningLine converts fractional odds such as "5-2" into decimal odds
// (5/2 + 1 = 3.5). "even" and "evn" are accepted in any case. Surrounding
// whitespace is ignored; every other format is an error.
func ParseMorningLine(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "even", "evn":
		return EvenMoney, nil
	}

	m := fractionalPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableOdds, s)
	}

	num, err := decimal.NewFromString(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableOdds, s)
	}
	den, err := decimal.NewFromString(m[2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableOdds, s)
	}

	price, err := fractionalToDecimal(num, den)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnparseableOdds, s, err)
	}
	return price, nil
}

// FractionalToDecimal converts num-den fractional odds to decimal odds
func FractionalToDecimal(num, den int64) (float64, error) {
	if num < 0 || den < 0 {
		return 0, fmt.Errorf("%w: negative odds %d-%d", ErrUnparseableOdds, num, den)
	}
	return fractionalToDecimal(decimal.NewFromInt(num), decimal.NewFromInt(den))
}

func fractionalToDecimal(num, den decimal.Decimal) (float64, error) {
	if den.IsZero() {
		return 0, errors.New("zero denominator")
	}
	if num.IsZero() {
		return 0, errors.New("zero numerator")
	}
	return num.Div(den).Add(decimal.NewFromInt(1)).InexactFloat64(), nil
}
