// Package signals derives discrete trading signals from the last two
// rows of an enriched series. A signal with any NaN operand is
// suppressed, never errored.
package signals

import (
	"fmt"
	"math"

	"github.com/aristath/marketscan/internal/config"
	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/indicators"
)

// Generator emits the signal list for one symbol.
type Generator struct {
	t config.SignalThresholds
}

// New creates a signal generator.
func New(thresholds config.SignalThresholds) *Generator {
	return &Generator{t: thresholds}
}

// Generate returns the ordered, de-duplicated signals for a series.
// At least two rows are required; shorter series yield no signals.
func (g *Generator) Generate(s *domain.Series) []string {
	if s == nil || s.Len() < 2 {
		return nil
	}

	var out []string
	out = append(out, g.levelSignals(s)...)
	out = append(out, g.rsiSignals(s)...)
	out = append(out, g.bollingerSignals(s)...)
	out = append(out, g.volumeSignals(s)...)
	out = append(out, g.gapSignals(s)...)
	out = append(out, g.macdSignals(s)...)
	out = append(out, g.smaCrossSignals(s)...)
	out = append(out, g.adxSignals(s)...)

	return dedupe(out)
}

// levelSignals checks the close against yesterday's and last week's
// extremes: a close through the level is a break, a high or low that
// reaches it without the close following is a test.
func (g *Generator) levelSignals(s *domain.Series) []string {
	closePrice := s.Last(domain.ColClose)
	high := s.Last(domain.ColHigh)
	low := s.Last(domain.ColLow)

	var out []string

	upper := []struct {
		level float64
		name  string
	}{
		{s.Last(indicators.ColPrevWeekHigh), "previous week high"},
		{s.Last(indicators.ColPrevDayHigh), "previous day high"},
	}
	for _, l := range upper {
		switch {
		case math.IsNaN(l.level) || math.IsNaN(closePrice):
		case closePrice > l.level:
			out = append(out, "Breaking above "+l.name)
		case high >= l.level:
			out = append(out, "Testing "+l.name)
		}
	}

	lower := []struct {
		level float64
		name  string
	}{
		{s.Last(indicators.ColPrevWeekLow), "previous week low"},
		{s.Last(indicators.ColPrevDayLow), "previous day low"},
	}
	for _, l := range lower {
		switch {
		case math.IsNaN(l.level) || math.IsNaN(closePrice):
		case closePrice < l.level:
			out = append(out, "Breaking below "+l.name)
		case low <= l.level:
			out = append(out, "Testing "+l.name)
		}
	}

	return out
}

func (g *Generator) rsiSignals(s *domain.Series) []string {
	rsi := s.Last(indicators.ColRSI)
	if math.IsNaN(rsi) {
		return nil
	}

	switch {
	case rsi >= g.t.RSIExtremeOverbought:
		return []string{fmt.Sprintf("Extreme Overbought (RSI %.1f)", rsi)}
	case rsi >= g.t.RSIOverbought:
		return []string{fmt.Sprintf("Overbought (RSI %.1f)", rsi)}
	case rsi <= g.t.RSIExtremeOversold:
		return []string{fmt.Sprintf("Extreme Oversold (RSI %.1f)", rsi)}
	case rsi <= g.t.RSIOversold:
		return []string{fmt.Sprintf("Oversold (RSI %.1f)", rsi)}
	}
	return nil
}

func (g *Generator) bollingerSignals(s *domain.Series) []string {
	closePrice := s.Last(domain.ColClose)
	high := s.Last(domain.ColHigh)
	low := s.Last(domain.ColLow)
	upper := s.Last(indicators.ColBBUpper)
	lowerBand := s.Last(indicators.ColBBLower)

	var out []string
	if !math.IsNaN(upper) && !math.IsNaN(closePrice) {
		switch {
		case closePrice > upper:
			out = append(out, "BB Upper Breakout")
		case high >= g.t.BBBreakoutFactor*upper:
			out = append(out, "Testing upper Bollinger Band")
		}
	}
	if !math.IsNaN(lowerBand) && !math.IsNaN(closePrice) {
		switch {
		case closePrice < lowerBand:
			out = append(out, "BB Lower Breakout")
		case low <= (2-g.t.BBBreakoutFactor)*lowerBand:
			out = append(out, "Testing lower Bollinger Band")
		}
	}
	return out
}

func (g *Generator) volumeSignals(s *domain.Series) []string {
	ratio := s.Last(indicators.ColVolumeRatio)
	if math.IsNaN(ratio) || ratio <= g.t.VolumeSurgeRatio {
		return nil
	}
	return []string{fmt.Sprintf("Volume Surge (%.1fx average)", ratio)}
}

func (g *Generator) gapSignals(s *domain.Series) []string {
	open := s.Last(domain.ColOpen)
	prevClose := s.Prev(domain.ColClose)
	if math.IsNaN(open) || math.IsNaN(prevClose) || prevClose == 0 {
		return nil
	}

	gap := open/prevClose - 1
	if math.Abs(gap) <= g.t.GapThreshold {
		return nil
	}
	if gap > 0 {
		return []string{fmt.Sprintf("Gap Up (%.1f%%)", gap*100)}
	}
	return []string{fmt.Sprintf("Gap Down (%.1f%%)", -gap*100)}
}

// macdSignals fires on a sign change of macd - signal between the two
// rows.
func (g *Generator) macdSignals(s *domain.Series) []string {
	cur := s.Last(indicators.ColMACD) - s.Last(indicators.ColMACDSignal)
	prev := s.Prev(indicators.ColMACD) - s.Prev(indicators.ColMACDSignal)
	if math.IsNaN(cur) || math.IsNaN(prev) {
		return nil
	}

	switch {
	case prev < 0 && cur > 0:
		return []string{"MACD Bullish Crossover"}
	case prev > 0 && cur < 0:
		return []string{"MACD Bearish Crossover"}
	}
	return nil
}

func (g *Generator) smaCrossSignals(s *domain.Series) []string {
	cur50 := s.Last(indicators.SMACol(50))
	cur200 := s.Last(indicators.SMACol(200))
	prev50 := s.Prev(indicators.SMACol(50))
	prev200 := s.Prev(indicators.SMACol(200))
	if math.IsNaN(cur50) || math.IsNaN(cur200) || math.IsNaN(prev50) || math.IsNaN(prev200) {
		return nil
	}

	switch {
	case prev50 <= prev200 && cur50 > cur200:
		return []string{"Golden Cross (SMA50 over SMA200)"}
	case prev50 >= prev200 && cur50 < cur200:
		return []string{"Death Cross (SMA50 under SMA200)"}
	}
	return nil
}

func (g *Generator) adxSignals(s *domain.Series) []string {
	adx := s.Last(indicators.ColADX)
	if math.IsNaN(adx) || adx <= g.t.ADXStrongTrend {
		return nil
	}
	return []string{fmt.Sprintf("Strong Trend (ADX %.1f)", adx)}
}

// dedupe removes repeats while preserving first-seen order.
func dedupe(signals []string) []string {
	seen := make(map[string]bool, len(signals))
	out := signals[:0]
	for _, sig := range signals {
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, sig)
	}
	return out
}
