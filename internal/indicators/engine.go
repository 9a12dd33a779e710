package indicators

import (
	"math"

	"github.com/aristath/marketscan/internal/domain"
)

// Params holds every indicator period. Defaults mirror the classical
// settings: RSI(14), MACD(12,26,9), ADX(14), ATR(14), BB(20, 2.0).
type Params struct {
	SMAPeriods    []int
	ROCPeriods    []int
	HVolPeriods   []int
	ZScorePeriods []int
	RSIPeriod     int
	MACDFast      int
	MACDSlow      int
	MACDSignal    int
	ADXPeriod     int
	ATRPeriod     int
	BBPeriod      int
	BBStd         float64
}

// DefaultParams returns the standard configuration.
func DefaultParams() Params {
	return Params{
		SMAPeriods:    []int{20, 50, 125, 200},
		ROCPeriods:    []int{10, 20, 60},
		HVolPeriods:   []int{20, 60},
		ZScorePeriods: []int{20, 50, 125},
		RSIPeriod:     14,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		ADXPeriod:     14,
		ATRPeriod:     14,
		BBPeriod:      20,
		BBStd:         2.0,
	}
}

// meanMedianOscillatorPeriod is the SMA period that is not a moving
// average at all: SMA_125 = rolling_mean(close,125) - rolling_median(close,126).
// The trend score's "close > SMA_125" check relies on this being an
// oscillator around zero, so it must not be replaced with a plain SMA.
const meanMedianOscillatorPeriod = 125

// Engine computes the full derived-column set for a series.
type Engine struct {
	params Params
}

// NewEngine creates an indicator engine.
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// ComputeAll appends every derived column to the series and returns
// it. It is a deterministic function of the input rows: a value at row
// i depends only on rows at or before i, and NaN marks insufficient
// history.
func (e *Engine) ComputeAll(s *domain.Series) *domain.Series {
	if s.Len() == 0 {
		return s
	}

	e.addPriceLevels(s)
	e.addSMAs(s)
	e.addRSI(s)
	e.addROC(s)
	e.addMACD(s)
	e.addATR(s)
	e.addBollinger(s)
	e.addHVol(s)
	e.addADX(s)
	e.addZScore(s)
	e.add52WeekRange(s)
	e.addReturns(s)
	e.addVolume(s)

	return s
}

// addPriceLevels derives the T-1 reference levels: everything here
// shifts one row back so today's bar never sees its own high/low.
func (e *Engine) addPriceLevels(s *domain.Series) {
	high := s.Column(domain.ColHigh)
	low := s.Column(domain.ColLow)
	closes := s.Column(domain.ColClose)

	prevHigh := Shift(high, 1)
	prevLow := Shift(low, 1)
	prevClose := Shift(closes, 1)

	s.Set(ColPrevDayHigh, prevHigh)
	s.Set(ColPrevDayLow, prevLow)
	s.Set(ColPrevDayClose, prevClose)

	rangePct := nanSlice(s.Len())
	for i := range rangePct {
		rangePct[i] = 100 * (prevHigh[i] - prevLow[i]) / prevClose[i]
	}
	s.Set(ColPrevDayRangePct, rangePct)

	s.Set(ColPrevWeekHigh, RollingMax(prevHigh, 5, 5))
	s.Set(ColPrevWeekLow, RollingMin(prevLow, 5, 5))

	weekly := PctChange(closes, 5)
	for i := range weekly {
		weekly[i] *= 100
	}
	s.Set(ColWeeklyReturnPct, Shift(weekly, 1))

	// Classical pivots from the previous session's bar.
	pivot := nanSlice(s.Len())
	r1 := nanSlice(s.Len())
	r2 := nanSlice(s.Len())
	s1 := nanSlice(s.Len())
	s2 := nanSlice(s.Len())
	for i := range pivot {
		p := (prevHigh[i] + prevLow[i] + prevClose[i]) / 3
		pivot[i] = p
		r1[i] = 2*p - prevLow[i]
		r2[i] = p + (prevHigh[i] - prevLow[i])
		s1[i] = 2*p - prevHigh[i]
		s2[i] = p - (prevHigh[i] - prevLow[i])
	}
	s.Set(ColPivot, pivot)
	s.Set(ColR1, r1)
	s.Set(ColR2, r2)
	s.Set(ColS1, s1)
	s.Set(ColS2, s2)
}

func (e *Engine) addSMAs(s *domain.Series) {
	closes := s.Column(domain.ColClose)

	for _, period := range e.params.SMAPeriods {
		var sma []float64
		if period == meanMedianOscillatorPeriod {
			mean := RollingMean(closes, period, period)
			median := RollingMedian(closes, period+1, period+1)
			sma = nanSlice(s.Len())
			for i := range sma {
				sma[i] = mean[i] - median[i]
			}
		} else {
			sma = RollingMean(closes, period, period)
		}
		s.Set(SMACol(period), sma)

		dist := nanSlice(s.Len())
		for i := range dist {
			dist[i] = 100 * (closes[i] - sma[i]) / sma[i]
		}
		s.Set(DistSMACol(period), dist)
	}
}

func (e *Engine) addRSI(s *domain.Series) {
	period := e.params.RSIPeriod
	delta := Diff(s.Column(domain.ColClose))

	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, d := range delta {
		// NaN compares false, so the first row contributes zero to
		// both sides, matching how the smoothing is seeded upstream
		if d > 0 {
			gains[i] = d
		}
		if d < 0 {
			losses[i] = -d
		}
	}

	avgGains := Wilder(gains, period)
	avgLosses := Wilder(losses, period)

	rsi := nanSlice(s.Len())
	for i := range rsi {
		rs := avgGains[i] / avgLosses[i]
		rsi[i] = 100 - 100/(1+rs)
	}
	s.Set(ColRSI, rsi)
}

func (e *Engine) addROC(s *domain.Series) {
	closes := s.Column(domain.ColClose)
	for _, period := range e.params.ROCPeriods {
		roc := PctChange(closes, period)
		for i := range roc {
			roc[i] *= 100
		}
		s.Set(ROCCol(period), roc)
	}
}

func (e *Engine) addMACD(s *domain.Series) {
	closes := s.Column(domain.ColClose)

	emaFast := EWMSpan(closes, e.params.MACDFast, 0)
	emaSlow := EWMSpan(closes, e.params.MACDSlow, 0)

	macd := nanSlice(s.Len())
	for i := range macd {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signal := EWMSpan(macd, e.params.MACDSignal, 0)

	hist := nanSlice(s.Len())
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}

	crossover := make([]float64, s.Len())
	for i := 1; i < len(hist); i++ {
		switch {
		case hist[i] > 0 && hist[i-1] < 0:
			crossover[i] = 1
		case hist[i] < 0 && hist[i-1] > 0:
			crossover[i] = -1
		}
	}

	s.Set(ColMACD, macd)
	s.Set(ColMACDSignal, signal)
	s.Set(ColMACDHistogram, hist)
	s.Set(ColMACDCrossover, crossover)
}

func (e *Engine) addATR(s *domain.Series) {
	period := e.params.ATRPeriod
	high := s.Column(domain.ColHigh)
	low := s.Column(domain.ColLow)
	closes := s.Column(domain.ColClose)

	tr := make([]float64, s.Len())
	tr[0] = high[0] - low[0]
	for i := 1; i < s.Len(); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	atr := Wilder(tr, period)

	atrPct := nanSlice(s.Len())
	for i := range atrPct {
		atrPct[i] = 100 * atr[i] / closes[i]
	}

	s.Set(ColTR, tr)
	s.Set(ColATR, atr)
	s.Set(ColATRPct, atrPct)
}

func (e *Engine) addBollinger(s *domain.Series) {
	period := e.params.BBPeriod
	k := e.params.BBStd
	closes := s.Column(domain.ColClose)

	middle := RollingMean(closes, period, period)
	sd := RollingStd(closes, period, period)

	upper := nanSlice(s.Len())
	lower := nanSlice(s.Len())
	width := nanSlice(s.Len())
	pctB := nanSlice(s.Len())
	for i := range middle {
		upper[i] = middle[i] + k*sd[i]
		lower[i] = middle[i] - k*sd[i]
		width[i] = 100 * (upper[i] - lower[i]) / middle[i]
		pctB[i] = 100 * (closes[i] - lower[i]) / (upper[i] - lower[i])
	}

	s.Set(ColBBMiddle, middle)
	s.Set(ColBBUpper, upper)
	s.Set(ColBBLower, lower)
	s.Set(ColBBWidth, width)
	s.Set(ColBBPctB, pctB)
}

func (e *Engine) addHVol(s *domain.Series) {
	closes := s.Column(domain.ColClose)

	logReturns := nanSlice(s.Len())
	for i := 1; i < s.Len(); i++ {
		logReturns[i] = math.Log(closes[i] / closes[i-1])
	}

	for _, period := range e.params.HVolPeriods {
		sd := RollingStd(logReturns, period, period)
		hvol := nanSlice(s.Len())
		for i := range hvol {
			hvol[i] = sd[i] * math.Sqrt(252) * 100
		}
		s.Set(HVolCol(period), hvol)
	}
}

func (e *Engine) addADX(s *domain.Series) {
	period := e.params.ADXPeriod
	high := s.Column(domain.ColHigh)
	low := s.Column(domain.ColLow)
	atr := s.Column(ColATR)

	highDiff := Diff(high)
	lowDiff := nanSlice(s.Len())
	for i := 1; i < s.Len(); i++ {
		lowDiff[i] = low[i-1] - low[i]
	}

	plusDM := make([]float64, s.Len())
	minusDM := make([]float64, s.Len())
	for i := range plusDM {
		if highDiff[i] > lowDiff[i] && highDiff[i] > 0 {
			plusDM[i] = highDiff[i]
		}
		if lowDiff[i] > highDiff[i] && lowDiff[i] > 0 {
			minusDM[i] = lowDiff[i]
		}
	}

	plusSmooth := Wilder(plusDM, period)
	minusSmooth := Wilder(minusDM, period)

	plusDI := nanSlice(s.Len())
	minusDI := nanSlice(s.Len())
	dx := nanSlice(s.Len())
	for i := range plusDI {
		plusDI[i] = 100 * plusSmooth[i] / atr[i]
		minusDI[i] = 100 * minusSmooth[i] / atr[i]
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / (plusDI[i] + minusDI[i])
	}

	s.Set(ColPlusDI, plusDI)
	s.Set(ColMinusDI, minusDI)
	s.Set(ColADX, EWMMean(dx, 1/float64(period), period))
}

func (e *Engine) addZScore(s *domain.Series) {
	closes := s.Column(domain.ColClose)
	for _, period := range e.params.ZScorePeriods {
		mean := RollingMean(closes, period, period)
		sd := RollingStd(closes, period, period)
		z := nanSlice(s.Len())
		for i := range z {
			z[i] = (closes[i] - mean[i]) / sd[i]
		}
		s.Set(ZScoreCol(period), z)
	}
}

func (e *Engine) add52WeekRange(s *domain.Series) {
	const window = 252

	high52 := RollingMax(s.Column(domain.ColHigh), window, window)
	low52 := RollingMin(s.Column(domain.ColLow), window, window)
	closes := s.Column(domain.ColClose)

	pos := nanSlice(s.Len())
	for i := range pos {
		pos[i] = 100 * (closes[i] - low52[i]) / (high52[i] - low52[i])
	}

	s.Set(ColHigh52w, high52)
	s.Set(ColLow52w, low52)
	s.Set(ColRangePosition, pos)
}

func (e *Engine) addReturns(s *domain.Series) {
	closes := s.Column(domain.ColClose)
	for _, rp := range []struct {
		col    string
		period int
	}{
		{ColReturn1d, 1},
		{ColReturn5d, 5},
		{ColReturn21d, 21},
		{ColReturn63d, 63},
	} {
		ret := PctChange(closes, rp.period)
		for i := range ret {
			ret[i] *= 100
		}
		s.Set(rp.col, ret)
	}
}

// addVolume derives the volume block only when the series carries real
// volume; indices report zero volume and get no volume columns.
func (e *Engine) addVolume(s *domain.Series) {
	volume := s.Column(domain.ColVolume)

	total := 0.0
	for _, v := range volume {
		if !math.IsNaN(v) {
			total += v
		}
	}
	if total <= 0 {
		return
	}

	volSMA := RollingMean(volume, 20, 20)
	ratio := nanSlice(s.Len())
	for i := range ratio {
		ratio[i] = volume[i] / volSMA[i]
	}

	closes := s.Column(domain.ColClose)
	obv := make([]float64, s.Len())
	for i := 1; i < s.Len(); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv[i] = obv[i-1] + volume[i]
		case closes[i] < closes[i-1]:
			obv[i] = obv[i-1] - volume[i]
		default:
			obv[i] = obv[i-1]
		}
	}

	s.Set(ColVolumeSMA20, volSMA)
	s.Set(ColVolumeRatio, ratio)
	s.Set(ColOBV, obv)
}
