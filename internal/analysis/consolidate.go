package analysis

import (
	"math"

	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/indicators"
)

// consolidate assembles the per-symbol records and rankings into the
// final result object.
func (s *Service) consolidate(
	enriched map[string]*domain.Series,
	scores map[string]domain.ScoreSet,
	snapshot domain.RegimeSnapshot,
) *domain.AnalysisResult {
	instruments := make(map[string]domain.InstrumentRecord, len(enriched))

	for _, sym := range s.universe.Symbols {
		series, ok := enriched[sym.Ticker]
		if !ok {
			continue
		}
		instruments[sym.Ticker] = s.instrumentRecord(sym, series, scores[sym.Ticker])
	}

	return &domain.AnalysisResult{
		MarketRegime:  snapshot,
		Instruments:   instruments,
		Rankings:      s.rankings(scores),
		NotableEvents: []string{},
	}
}

func (s *Service) instrumentRecord(sym domain.Symbol, series *domain.Series, scores domain.ScoreSet) domain.InstrumentRecord {
	volume := int64(0)
	if v := series.Last(domain.ColVolume); !math.IsNaN(v) {
		volume = int64(v)
	}

	sigs := s.signals.Generate(series)
	if sigs == nil {
		sigs = []string{}
	}

	return domain.InstrumentRecord{
		Info: domain.InstrumentInfo{
			Name:      sym.Name,
			Category:  sym.Category,
			Benchmark: sym.Benchmark,
		},
		Current: domain.CurrentBar{
			Price:       domain.Float(series.Last(domain.ColClose)),
			Change1dPct: domain.Float(series.Last(indicators.ColReturn1d)),
			Volume:      volume,
		},
		KeyLevels: domain.KeyLevels{
			PrevDayHigh:  domain.Float(series.Last(indicators.ColPrevDayHigh)),
			PrevDayLow:   domain.Float(series.Last(indicators.ColPrevDayLow)),
			PrevWeekHigh: domain.Float(series.Last(indicators.ColPrevWeekHigh)),
			PrevWeekLow:  domain.Float(series.Last(indicators.ColPrevWeekLow)),
			PivotPoint:   domain.Float(series.Last(indicators.ColPivot)),
			Resistance1:  domain.Float(series.Last(indicators.ColR1)),
			Resistance2:  domain.Float(series.Last(indicators.ColR2)),
			Support1:     domain.Float(series.Last(indicators.ColS1)),
			Support2:     domain.Float(series.Last(indicators.ColS2)),
		},
		Indicators: domain.IndicatorSummary{
			RSI14:         domain.Float(series.Last(indicators.ColRSI)),
			MACDHist:      domain.Float(series.Last(indicators.ColMACDHistogram)),
			ADX14:         domain.Float(series.Last(indicators.ColADX)),
			ATRPct:        domain.Float(series.Last(indicators.ColATRPct)),
			BBWidth:       domain.Float(series.Last(indicators.ColBBWidth)),
			BBPctB:        domain.Float(series.Last(indicators.ColBBPctB)),
			SMA20:         domain.Float(series.Last(indicators.SMACol(20))),
			SMA50:         domain.Float(series.Last(indicators.SMACol(50))),
			SMA200:        domain.Float(series.Last(indicators.SMACol(200))),
			DistSMA200Pct: domain.Float(series.Last(indicators.DistSMACol(200))),
			HVol20:        domain.Float(series.Last(indicators.HVolCol(20))),
			RangePosition: domain.Float(series.Last(indicators.ColRangePosition)),
			Return5dPct:   domain.Float(series.Last(indicators.ColReturn5d)),
			Return21dPct:  domain.Float(series.Last(indicators.ColReturn21d)),
			VolumeRatio:   domain.Float(series.Last(indicators.ColVolumeRatio)),
		},
		Scores:  scores,
		Signals: sigs,
	}
}
