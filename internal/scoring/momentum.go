package scoring

import (
	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/indicators"
	"github.com/aristath/marketscan/pkg/formulas"
)

// Momentum component weights. They sum to 1.0.
const (
	momentumWeightRSI      = 0.35
	momentumWeightMACDRank = 0.35
	momentumWeightROC      = 0.30
)

// MomentumScorer blends the RSI level, the relative position of the
// MACD histogram within its trailing year, and a multi-horizon ROC
// composite. The MACD component is a percentile rank, not a crossover
// test.
type MomentumScorer struct {
	PercentileWindow     int
	PercentileMinPeriods int
}

// Calculate returns the momentum score and its components.
func (m *MomentumScorer) Calculate(s *domain.Series) (float64, map[string]float64) {
	components := map[string]float64{
		"rsi":             m.rsi(s),
		"macd_percentile": m.macdPercentile(s),
		"roc_composite":   m.rocComposite(s),
	}

	score := momentumWeightRSI*components["rsi"] +
		momentumWeightMACDRank*components["macd_percentile"] +
		momentumWeightROC*components["roc_composite"]

	return formulas.Clamp(score, 0, 100), components
}

func (m *MomentumScorer) rsi(s *domain.Series) float64 {
	return orNeutral(formulas.Clamp(s.Last(indicators.ColRSI), 0, 100))
}

func (m *MomentumScorer) macdPercentile(s *domain.Series) float64 {
	hist := s.Column(indicators.ColMACDHistogram)
	if hist == nil {
		return neutralScore
	}
	return orNeutral(LastPercentileRank(hist, m.PercentileWindow, m.PercentileMinPeriods))
}

func (m *MomentumScorer) rocComposite(s *domain.Series) float64 {
	roc10 := s.Last(indicators.ROCCol(10))
	roc20 := s.Last(indicators.ROCCol(20))
	roc60 := s.Last(indicators.ROCCol(60))

	composite := 0.5*roc10 + 0.3*roc20 + 0.2*roc60
	return orNeutral(normalize(composite, -20, 20))
}
