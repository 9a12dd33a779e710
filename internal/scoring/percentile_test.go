package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingPercentileRankIncreasing(t *testing.T) {
	s := make([]float64, 60)
	for i := range s {
		s[i] = float64(i)
	}

	got := RollingPercentileRank(s, DefaultPercentileWindow, DefaultPercentileMinPeriods)

	// masked until fifty observations are in the window
	for i := 0; i < 49; i++ {
		assert.True(t, math.IsNaN(got[i]), "index %d should be masked", i)
	}
	// every prior value is strictly less than the current one
	for i := 49; i < 60; i++ {
		assert.InDelta(t, 100, got[i], 1e-12, "index %d", i)
	}
}

func TestRollingPercentileRankTiesScoreZero(t *testing.T) {
	s := make([]float64, 60)
	for i := range s {
		s[i] = 5
	}

	got := RollingPercentileRank(s, DefaultPercentileWindow, DefaultPercentileMinPeriods)

	// ties are not "strictly less", so a constant series ranks at the bottom
	for i := 49; i < 60; i++ {
		assert.InDelta(t, 0, got[i], 1e-12, "index %d", i)
	}
}

func TestRollingPercentileRankDecreasing(t *testing.T) {
	s := make([]float64, 60)
	for i := range s {
		s[i] = float64(60 - i)
	}

	got := RollingPercentileRank(s, DefaultPercentileWindow, DefaultPercentileMinPeriods)
	assert.InDelta(t, 0, got[59], 1e-12)
}

func TestRollingPercentileRankWindowSlides(t *testing.T) {
	got := RollingPercentileRank([]float64{1, 2, 3, 0, 4}, 5, 2)

	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 100, got[1], 1e-12)
	assert.InDelta(t, 100, got[2], 1e-12)
	assert.InDelta(t, 0, got[3], 1e-12)
	assert.InDelta(t, 100, got[4], 1e-12)
}

func TestRollingPercentileRankNaNCurrent(t *testing.T) {
	s := []float64{1, 2, 3, math.NaN(), 5}
	got := RollingPercentileRank(s, 5, 2)

	assert.True(t, math.IsNaN(got[3]), "NaN current value must not rank")
	// three of four prior positions are strictly less; the divisor
	// counts positions, not observations
	assert.InDelta(t, 75, got[4], 1e-12)
}

func TestRollingPercentileRankDegenerateWindow(t *testing.T) {
	got := RollingPercentileRank([]float64{1, 2, 3}, 1, 1)
	for i, v := range got {
		assert.True(t, math.IsNaN(v), "index %d", i)
	}
}

func TestLastPercentileRankShortSeries(t *testing.T) {
	assert.True(t, math.IsNaN(LastPercentileRank([]float64{1, 2, 3}, 252, 50)))
	assert.True(t, math.IsNaN(LastPercentileRank(nil, 252, 50)))
}
