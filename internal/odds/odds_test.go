package odds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMorningLine(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"5-2", 3.5},
		{"2-1", 3.0},
		{"12-1", 13.0},
		{"1-5", 1.2},
		{"9-5", 2.8},
		{"99-1", 100.0},
		{"even", 2.0},
		{"EVEN", 2.0},
		{"Evn", 2.0},
		{"  7-2 ", 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMorningLine(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseMorningLineRejects(t *testing.T) {
	for _, input := range []string{"", "5/2", "3.5", "5-0", "0-1", "-5-2", "5-2-1", "evens", "SCR", "5 - 2"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseMorningLine(input)
			assert.ErrorIs(t, err, ErrUnparseableOdds)
		})
	}
}

func TestFractionalToDecimal(t *testing.T) {
	got, err := FractionalToDecimal(8, 5)
	require.NoError(t, err)
	assert.InDelta(t, 2.6, got, 1e-12)

	_, err = FractionalToDecimal(-1, 2)
	assert.ErrorIs(t, err, ErrUnparseableOdds)

	_, err = FractionalToDecimal(3, 0)
	assert.Error(t, err)
}
