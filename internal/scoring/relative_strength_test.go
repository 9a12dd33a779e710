package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/marketscan/internal/domain"
)

func closeSeries(ticker string, closes []float64, start time.Time) *domain.Series {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Date:     start.AddDate(0, 0, i),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
		}
	}
	return domain.NewSeries(ticker, bars)
}

func rsScorer() *RelativeStrengthScorer {
	return &RelativeStrengthScorer{
		PercentileWindow:     DefaultPercentileWindow,
		PercentileMinPeriods: DefaultPercentileMinPeriods,
	}
}

func TestRelativeStrengthOutperformer(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	sym := closeSeries("XLK", geometricCloses(300, 1.01), start)
	bench := closeSeries("SPY", geometricCloses(300, 1.0), start)

	score, components := rsScorer().Calculate(sym, bench)

	assert.InDelta(t, 100, score, 1e-9)
	assert.InDelta(t, 100, components["rs_rank"], 1e-9)
	assert.Greater(t, components["rs_momentum"], 0.0)
}

func TestRelativeStrengthUnderperformer(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	sym := closeSeries("USO", geometricCloses(300, 0.99), start)
	bench := closeSeries("SPY", geometricCloses(300, 1.0), start)

	score, components := rsScorer().Calculate(sym, bench)

	assert.InDelta(t, 0, score, 1e-9)
	assert.InDelta(t, 0, components["rs_rank"], 1e-9)
	assert.Less(t, components["rs_momentum"], 0.0)
}

func TestRelativeStrengthNeutralCases(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	sym := closeSeries("GLD", geometricCloses(300, 1.01), start)

	t.Run("nil benchmark", func(t *testing.T) {
		score, _ := rsScorer().Calculate(sym, nil)
		assert.InDelta(t, 50, score, 1e-9)
	})

	t.Run("self benchmark", func(t *testing.T) {
		score, _ := rsScorer().Calculate(sym, sym)
		assert.InDelta(t, 50, score, 1e-9)
	})

	t.Run("too few aligned rows", func(t *testing.T) {
		bench := closeSeries("SPY", geometricCloses(30, 1.0), start)
		score, _ := rsScorer().Calculate(sym, bench)
		assert.InDelta(t, 50, score, 1e-9)
	})

	t.Run("disjoint dates", func(t *testing.T) {
		bench := closeSeries("SPY", geometricCloses(300, 1.0), start.AddDate(3, 0, 0))
		score, _ := rsScorer().Calculate(sym, bench)
		assert.InDelta(t, 50, score, 1e-9)
	})
}

func TestAlignedRatioInnerJoin(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sym := closeSeries("A", []float64{10, 20, 30}, start)
	// benchmark misses the middle date
	bench := domain.NewSeries("B", []domain.Bar{
		{Date: start, Close: 5},
		{Date: start.AddDate(0, 0, 2), Close: 10},
	})

	ratio := alignedRatio(sym, bench)
	assert.Equal(t, []float64{2, 3}, ratio)
}
