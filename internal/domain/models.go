package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Float is a float64 that marshals NaN and infinities as JSON null.
// Downstream consumers require finite numbers or null, never NaN.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler. null becomes NaN.
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Bar is one day's OHLCV record for a symbol. AdjClose falls back to
// Close when the provider supplies no adjusted series.
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// Symbol describes one universe entry. Order of entries in the universe
// is the tie-break order for rankings.
type Symbol struct {
	Ticker    string `json:"ticker" yaml:"ticker"`
	Name      string `json:"name" yaml:"name"`
	Exchange  string `json:"exchange" yaml:"exchange"`
	Category  string `json:"category" yaml:"category"`
	Benchmark string `json:"benchmark" yaml:"benchmark"`
	Provider  string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// ScoreSet holds the four sub-scores and the composite, each in [0,100].
// Volatility is "high = risky"; it is inverted only inside the composite.
type ScoreSet struct {
	Composite        float64 `json:"composite"`
	Trend            float64 `json:"trend"`
	Momentum         float64 `json:"momentum"`
	Volatility       float64 `json:"volatility"`
	RelativeStrength float64 `json:"relative_strength"`
}

// Regime categories.
const (
	VIXRegimeLow     = "low"
	VIXRegimeMedium  = "medium"
	VIXRegimeHigh    = "high"
	VIXRegimeUnknown = "unknown"

	TrendUp      = "uptrend"
	TrendDown    = "downtrend"
	TrendUnknown = "unknown"

	ConditionBullish         = "bullish"
	ConditionBearish         = "bearish"
	ConditionVolatileBullish = "volatile_bullish"
	ConditionQuietBearish    = "quiet_bearish"
	ConditionNeutral         = "neutral"
	ConditionUnknown         = "unknown"

	RiskOn      = "risk-on"
	RiskNeutral = "neutral"
	RiskOff     = "risk-off"
)

// RegimeSnapshot summarizes the aggregate market state for one run.
// SpyAboveSMA200 is nil when the broad-equity series or its SMA200 is
// unavailable.
type RegimeSnapshot struct {
	VIXLevel        Float  `json:"vix_level"`
	VIXRegime       string `json:"vix_regime"`
	SpyTrend        string `json:"spy_trend"`
	SpyAboveSMA200  *bool  `json:"spy_above_sma200"`
	MarketCondition string `json:"market_condition"`
	RiskAppetite    string `json:"risk_appetite"`
}

// InstrumentInfo carries the static universe attributes of a symbol.
type InstrumentInfo struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Benchmark string `json:"benchmark"`
}

// CurrentBar summarizes the last bar of the enriched series.
type CurrentBar struct {
	Price       Float `json:"price"`
	Change1dPct Float `json:"change_1d_pct"`
	Volume      int64 `json:"volume"`
}

// KeyLevels carries the price levels traders reference intraday.
type KeyLevels struct {
	PrevDayHigh  Float `json:"prev_day_high"`
	PrevDayLow   Float `json:"prev_day_low"`
	PrevWeekHigh Float `json:"prev_week_high"`
	PrevWeekLow  Float `json:"prev_week_low"`
	PivotPoint   Float `json:"pivot_point"`
	Resistance1  Float `json:"resistance_1"`
	Resistance2  Float `json:"resistance_2"`
	Support1     Float `json:"support_1"`
	Support2     Float `json:"support_2"`
}

// IndicatorSummary carries the last value of the headline indicators.
type IndicatorSummary struct {
	RSI14         Float `json:"rsi_14"`
	MACDHist      Float `json:"macd_hist"`
	ADX14         Float `json:"adx_14"`
	ATRPct        Float `json:"atr_pct"`
	BBWidth       Float `json:"bb_width"`
	BBPctB        Float `json:"bb_pct_b"`
	SMA20         Float `json:"sma_20"`
	SMA50         Float `json:"sma_50"`
	SMA200        Float `json:"sma_200"`
	DistSMA200Pct Float `json:"dist_sma_200_pct"`
	HVol20        Float `json:"hvol_20"`
	RangePosition Float `json:"range_position_52w"`
	Return5dPct   Float `json:"return_5d_pct"`
	Return21dPct  Float `json:"return_21d_pct"`
	VolumeRatio   Float `json:"volume_ratio"`
}

// InstrumentRecord is the consolidated per-symbol output of a run.
type InstrumentRecord struct {
	Info       InstrumentInfo   `json:"info"`
	Current    CurrentBar       `json:"current"`
	KeyLevels  KeyLevels        `json:"key_levels"`
	Indicators IndicatorSummary `json:"indicators"`
	Scores     ScoreSet         `json:"scores"`
	Signals    []string         `json:"signals"`
}

// RankingEntry is one row of a ranking list. Every entry carries all
// five scores so consumers can re-sort without joining back.
type RankingEntry struct {
	Ticker           string  `json:"ticker"`
	Composite        float64 `json:"composite"`
	Trend            float64 `json:"trend"`
	Momentum         float64 `json:"momentum"`
	Volatility       float64 `json:"volatility"`
	RelativeStrength float64 `json:"relative_strength"`
}

// Rankings holds the ordered lists for each criterion. All lists are
// descending except by_volatility, which is ascending so the least
// volatile symbols come first.
type Rankings struct {
	ByCompositeScore   []RankingEntry `json:"by_composite_score"`
	ByTrend            []RankingEntry `json:"by_trend"`
	ByMomentum         []RankingEntry `json:"by_momentum"`
	ByVolatility       []RankingEntry `json:"by_volatility"`
	ByRelativeStrength []RankingEntry `json:"by_relative_strength"`
}

// DateRange is the analysis window of a run.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Metadata describes one analysis run.
type Metadata struct {
	RunID               string    `json:"run_id"`
	AnalysisDate        string    `json:"analysis_date"`
	GeneratedAt         time.Time `json:"generated_at"`
	Version             string    `json:"version"`
	InstrumentsAnalyzed int       `json:"instruments_analyzed"`
	DateRange           DateRange `json:"date_range"`
}

// AnalysisResult is the full output of one run.
type AnalysisResult struct {
	Metadata      Metadata                    `json:"metadata"`
	MarketRegime  RegimeSnapshot              `json:"market_regime"`
	Instruments   map[string]InstrumentRecord `json:"instruments"`
	Rankings      Rankings                    `json:"rankings"`
	ProcessedData map[string]*Series          `json:"processed_data,omitempty"`
	NotableEvents []string                    `json:"notable_events"`
	FailedSymbols []FetchFailure              `json:"failed_symbols,omitempty"`
}
