package scoring

import (
	"math"

	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/indicators"
	"github.com/aristath/marketscan/pkg/formulas"
)

// Trend component weights. They sum to 1.0.
const (
	trendWeightSMA     = 0.30
	trendWeightADX     = 0.25
	trendWeightROC     = 0.25
	trendWeightPattern = 0.20
)

// TrendScorer blends moving-average positioning, directional strength,
// rate of change and the price pattern against yesterday's and last
// week's levels.
type TrendScorer struct {
	SMAPeriods []int
}

// Calculate returns the trend score and its components.
func (t *TrendScorer) Calculate(s *domain.Series) (float64, map[string]float64) {
	components := map[string]float64{
		"sma_positioning": t.smaPositioning(s),
		"adx_direction":   t.adxDirection(s),
		"roc":             t.roc(s),
		"pattern":         t.pattern(s),
	}

	score := trendWeightSMA*components["sma_positioning"] +
		trendWeightADX*components["adx_direction"] +
		trendWeightROC*components["roc"] +
		trendWeightPattern*components["pattern"]

	return formulas.Clamp(score, 0, 100), components
}

// smaPositioning awards an equal share per moving average the close
// sits above. The 125-period entry is the mean-minus-median oscillator,
// so its comparison is effectively a zero-crossing test.
func (t *TrendScorer) smaPositioning(s *domain.Series) float64 {
	closePrice := s.Last(domain.ColClose)

	above := 0
	for _, period := range t.SMAPeriods {
		// NaN comparisons are false, so missing SMAs score nothing
		if closePrice > s.Last(indicators.SMACol(period)) {
			above++
		}
	}
	if len(t.SMAPeriods) == 0 {
		return neutralScore
	}
	return 100 * float64(above) / float64(len(t.SMAPeriods))
}

// adxDirection centers on 50 and pushes toward the DI-dominant side,
// scaled by trend strength. Missing values read as a weak neutral
// trend.
func (t *TrendScorer) adxDirection(s *domain.Series) float64 {
	adx := orDefault(s.Last(indicators.ColADX), 20)
	plusDI := orDefault(s.Last(indicators.ColPlusDI), 50)
	minusDI := orDefault(s.Last(indicators.ColMinusDI), 50)

	direction := 0.0
	switch {
	case plusDI > minusDI:
		direction = 1
	case plusDI < minusDI:
		direction = -1
	}

	score := 50 + (math.Min(adx, 50)-25)*2*direction
	return formulas.Clamp(score, 0, 100)
}

func (t *TrendScorer) roc(s *domain.Series) float64 {
	return orNeutral(normalize(s.Last(indicators.ROCCol(20)), -20, 20))
}

// pattern is a hierarchy over yesterday's and last week's levels,
// checked most-bearish first so the strongest signal wins.
func (t *TrendScorer) pattern(s *domain.Series) float64 {
	closePrice := s.Last(domain.ColClose)

	switch {
	case closePrice < s.Last(indicators.ColPrevWeekLow):
		return 0
	case closePrice < s.Last(indicators.ColPrevDayLow):
		return 25
	case closePrice > s.Last(indicators.ColPrevWeekHigh):
		return 100
	case closePrice > s.Last(indicators.ColPrevDayHigh):
		return 75
	case closePrice > s.Last(indicators.ColPivot):
		return 60
	default:
		return 50
	}
}
