package scoring

import (
	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/indicators"
	"github.com/aristath/marketscan/pkg/formulas"
)

// Volatility component weights. They sum to 1.0.
const (
	volWeightATRRank   = 0.40
	volWeightBandWidth = 0.35
	volWeightHVolRatio = 0.25
)

// VolatilityScorer ranks realized volatility against its own trailing
// year. High means highly volatile, i.e. risky; the inversion to a
// "calm is good" reading happens once, inside the composite.
type VolatilityScorer struct {
	PercentileWindow     int
	PercentileMinPeriods int
}

// Calculate returns the volatility score and its components.
func (v *VolatilityScorer) Calculate(s *domain.Series) (float64, map[string]float64) {
	components := map[string]float64{
		"atr_percentile":       v.atrPercentile(s),
		"bandwidth_percentile": v.bandwidthPercentile(s),
		"hvol_ratio":           v.hvolRatio(s),
	}

	score := volWeightATRRank*components["atr_percentile"] +
		volWeightBandWidth*components["bandwidth_percentile"] +
		volWeightHVolRatio*components["hvol_ratio"]

	return formulas.Clamp(score, 0, 100), components
}

func (v *VolatilityScorer) atrPercentile(s *domain.Series) float64 {
	atrPct := s.Column(indicators.ColATRPct)
	if atrPct == nil {
		return neutralScore
	}
	return orNeutral(LastPercentileRank(atrPct, v.PercentileWindow, v.PercentileMinPeriods))
}

func (v *VolatilityScorer) bandwidthPercentile(s *domain.Series) float64 {
	width := s.Column(indicators.ColBBWidth)
	if width == nil {
		return neutralScore
	}
	return orNeutral(LastPercentileRank(width, v.PercentileWindow, v.PercentileMinPeriods))
}

// hvolRatio compares short-horizon to long-horizon realized
// volatility: above 1.0 volatility is expanding.
func (v *VolatilityScorer) hvolRatio(s *domain.Series) float64 {
	hvol20 := s.Last(indicators.HVolCol(20))
	hvol60 := s.Last(indicators.HVolCol(60))

	ratio := hvol20 / hvol60
	return orNeutral(normalize(ratio, 0.5, 1.5))
}
