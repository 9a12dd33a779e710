// Package regime classifies the aggregate market state from the
// volatility index level and the broad market's position against its
// 200-day average.
package regime

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/indicators"
)

// Classifier bands the volatility index and reads the broad-market
// trend.
type Classifier struct {
	vixLow    float64
	vixMedium float64
	log       zerolog.Logger
}

// New creates a regime classifier with the given VIX band boundaries.
func New(vixLow, vixMedium float64, log zerolog.Logger) *Classifier {
	return &Classifier{
		vixLow:    vixLow,
		vixMedium: vixMedium,
		log:       log.With().Str("component", "regime").Logger(),
	}
}

// Classify derives the regime snapshot from the enriched series of the
// volatility index and the broad-equity reference. Either series may
// be nil; the affected fields then read unknown and the run carries
// on.
func (c *Classifier) Classify(vix, spy *domain.Series) domain.RegimeSnapshot {
	snapshot := domain.RegimeSnapshot{
		VIXLevel:        domain.Float(math.NaN()),
		VIXRegime:       domain.VIXRegimeUnknown,
		SpyTrend:        domain.TrendUnknown,
		MarketCondition: domain.ConditionUnknown,
		RiskAppetite:    domain.RiskNeutral,
	}

	if vix != nil {
		level := vix.Last(domain.ColClose)
		snapshot.VIXLevel = domain.Float(level)
		if !math.IsNaN(level) {
			snapshot.VIXRegime, snapshot.RiskAppetite = c.band(level)
		}
	}

	if spy != nil {
		closePrice := spy.Last(domain.ColClose)
		sma200 := spy.Last(indicators.SMACol(200))
		if !math.IsNaN(closePrice) && !math.IsNaN(sma200) {
			above := closePrice > sma200
			snapshot.SpyAboveSMA200 = &above
			if above {
				snapshot.SpyTrend = domain.TrendUp
			} else {
				snapshot.SpyTrend = domain.TrendDown
			}
		}
	}

	snapshot.MarketCondition = condition(snapshot.VIXRegime, snapshot.SpyTrend)

	c.log.Info().
		Float64("vix_level", float64(snapshot.VIXLevel)).
		Str("vix_regime", snapshot.VIXRegime).
		Str("spy_trend", snapshot.SpyTrend).
		Str("condition", snapshot.MarketCondition).
		Msg("Market regime classified")

	return snapshot
}

// band maps the VIX level to its regime and the matching risk
// appetite.
func (c *Classifier) band(level float64) (string, string) {
	switch {
	case level < c.vixLow:
		return domain.VIXRegimeLow, domain.RiskOn
	case level < c.vixMedium:
		return domain.VIXRegimeMedium, domain.RiskNeutral
	default:
		return domain.VIXRegimeHigh, domain.RiskOff
	}
}

// condition is the decision table over VIX regime and broad-market
// trend; anything not matched reads neutral, and fully unknown inputs
// read unknown.
func condition(vixRegime, spyTrend string) string {
	switch {
	case vixRegime == domain.VIXRegimeLow && spyTrend == domain.TrendUp:
		return domain.ConditionBullish
	case vixRegime == domain.VIXRegimeHigh && spyTrend == domain.TrendDown:
		return domain.ConditionBearish
	case vixRegime == domain.VIXRegimeHigh && spyTrend == domain.TrendUp:
		return domain.ConditionVolatileBullish
	case vixRegime == domain.VIXRegimeLow && spyTrend == domain.TrendDown:
		return domain.ConditionQuietBearish
	case vixRegime == domain.VIXRegimeUnknown && spyTrend == domain.TrendUnknown:
		return domain.ConditionUnknown
	default:
		return domain.ConditionNeutral
	}
}
