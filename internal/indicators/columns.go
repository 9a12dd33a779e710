package indicators

import "fmt"

// Derived column names. Scoring and signal generation reference these,
// so renames ripple; keep them stable.
const (
	ColPrevDayHigh     = "prev_day_high"
	ColPrevDayLow      = "prev_day_low"
	ColPrevDayClose    = "prev_day_close"
	ColPrevDayRangePct = "prev_day_range_pct"
	ColPrevWeekHigh    = "prev_week_high"
	ColPrevWeekLow     = "prev_week_low"
	ColWeeklyReturnPct = "weekly_return_pct"

	ColPivot = "Pivot"
	ColR1    = "R1"
	ColR2    = "R2"
	ColS1    = "S1"
	ColS2    = "S2"

	ColRSI = "RSI"

	ColMACD          = "MACD"
	ColMACDSignal    = "MACD_signal"
	ColMACDHistogram = "MACD_histogram"
	ColMACDCrossover = "macd_crossover"

	ColTR     = "TR"
	ColATR    = "ATR"
	ColATRPct = "ATR_pct"

	ColBBMiddle = "BB_middle"
	ColBBUpper  = "BB_upper"
	ColBBLower  = "BB_lower"
	ColBBWidth  = "BB_width"
	ColBBPctB   = "BB_pct_b"

	ColPlusDI  = "plus_DI"
	ColMinusDI = "minus_DI"
	ColADX     = "ADX"

	ColHigh52w       = "high_52w"
	ColLow52w        = "low_52w"
	ColRangePosition = "range_position"

	ColReturn1d  = "return_1d"
	ColReturn5d  = "return_5d"
	ColReturn21d = "return_21d"
	ColReturn63d = "return_63d"

	ColVolumeSMA20 = "Volume_SMA_20"
	ColVolumeRatio = "Volume_ratio"
	ColOBV         = "OBV"
)

// SMACol returns the column name for an SMA period, e.g. SMA_20.
func SMACol(period int) string {
	return fmt.Sprintf("SMA_%d", period)
}

// DistSMACol returns the distance-from-SMA column name for a period.
func DistSMACol(period int) string {
	return fmt.Sprintf("dist_sma_%d_pct", period)
}

// ROCCol returns the rate-of-change column name for a period.
func ROCCol(period int) string {
	return fmt.Sprintf("ROC_%d", period)
}

// HVolCol returns the historical-volatility column name for a period.
func HVolCol(period int) string {
	return fmt.Sprintf("HVol_%d", period)
}

// ZScoreCol returns the z-score column name for a period.
func ZScoreCol(period int) string {
	return fmt.Sprintf("ZScore_%d", period)
}
