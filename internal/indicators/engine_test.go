package indicators

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/marketscan/internal/domain"
)

// flatBars builds one bar per close with open = high = low = close, so
// directional math is exact and range-based terms collapse.
func flatBars(closes []float64) []domain.Bar {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Date:     base.AddDate(0, 0, i),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
			Volume:   1_000_000,
		}
	}
	return bars
}

// walkBars builds a deterministic random walk with a one percent range
// around each close.
func walkBars(n int, seed int64) []domain.Bar {
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	bars := make([]domain.Bar, n)
	c := 100.0
	for i := range bars {
		prev := c
		c *= 1 + 0.02*(rng.Float64()-0.5)
		bars[i] = domain.Bar{
			Date:     base.AddDate(0, 0, i),
			Open:     prev,
			High:     math.Max(prev, c) * 1.01,
			Low:      math.Min(prev, c) * 0.99,
			Close:    c,
			AdjClose: c,
			Volume:   1_000_000 + int64(i),
		}
	}
	return bars
}

func linearCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func TestComputeAllLinearUptrend(t *testing.T) {
	s := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", flatBars(linearCloses(260))))

	// rolling means over consecutive integers
	assert.InDelta(t, 349.5, s.Last(SMACol(20)), 1e-9)
	assert.InDelta(t, 334.5, s.Last(SMACol(50)), 1e-9)
	assert.InDelta(t, 259.5, s.Last(SMACol(200)), 1e-9)
	assert.InDelta(t, 100*(359-349.5)/349.5, s.Last(DistSMACol(20)), 1e-9)

	// gains only, so RSI saturates
	assert.InDelta(t, 100, s.Last(ColRSI), 1e-9)

	assert.InDelta(t, 100*(359.0/339.0-1), s.Last(ROCCol(20)), 1e-9)
	assert.InDelta(t, 100*(359.0/358.0-1), s.Last(ColReturn1d), 1e-9)

	// perfectly directional: +DI takes the whole true range
	assert.InDelta(t, 100, s.Last(ColPlusDI), 1e-9)
	assert.InDelta(t, 0, s.Last(ColMinusDI), 1e-9)
	assert.InDelta(t, 100, s.Last(ColADX), 1e-9)
	assert.InDelta(t, 1.0, s.Last(ColATR), 1e-6)

	// close sits at its 52-week high
	assert.InDelta(t, 100, s.Last(ColRangePosition), 1e-9)
	assert.InDelta(t, 359, s.Last(ColHigh52w), 1e-9)

	assert.InDelta(t, 358, s.Last(ColPrevDayHigh), 1e-9)
	assert.InDelta(t, 358, s.Last(ColPrevWeekHigh), 1e-9)
	assert.InDelta(t, 358, s.Last(ColPivot), 1e-9)
	assert.InDelta(t, 100*(358.0/353.0-1), s.Last(ColWeeklyReturnPct), 1e-9)

	assert.Greater(t, s.Last(ColMACD), 0.0)
	assert.Equal(t, s.Last(ColBBMiddle), s.Last(SMACol(20)))
	assert.Greater(t, s.Last(ColBBUpper), 359.0)
	assert.Less(t, s.Last(ColBBLower), 359.0)

	// constant volume
	assert.InDelta(t, 1.0, s.Last(ColVolumeRatio), 1e-9)
	assert.InDelta(t, 259e6, s.Last(ColOBV), 1e-3)
}

func TestMeanMedianOscillator(t *testing.T) {
	// the 125-period slot is rolling_mean(125) - rolling_median(126),
	// an oscillator near zero, not a price-scale moving average
	s := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", flatBars(linearCloses(260))))

	assert.InDelta(t, 0.5, s.Last(SMACol(125)), 1e-9)
	assert.Less(t, math.Abs(s.Last(SMACol(125))), 1.0)

	// too little history for the 126-row median
	short := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", flatBars(linearCloses(125))))
	assert.True(t, math.IsNaN(short.Last(SMACol(125))))
}

func TestRSIAlternatingStaysNeutral(t *testing.T) {
	closes := make([]float64, 20)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}

	s := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", flatBars(closes)))
	rsi := s.Column(ColRSI)

	for i := 0; i < 13; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be masked", i)
	}
	for i := 13; i < len(rsi); i++ {
		assert.Greater(t, rsi[i], 45.0, "index %d", i)
		assert.Less(t, rsi[i], 55.0, "index %d", i)
	}
	assert.InDelta(t, 53.05, rsi[len(rsi)-1], 0.1)
}

func TestMACDCrossoverFlags(t *testing.T) {
	// sixty bars up then forty down forces the histogram through zero
	closes := make([]float64, 100)
	for i := range closes {
		if i < 60 {
			closes[i] = 100 + float64(i)
		} else {
			closes[i] = 159 - float64(i-60)*1.5
		}
	}

	s := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", flatBars(closes)))
	crossover := s.Column(ColMACDCrossover)

	bearish := 0
	for i, v := range crossover {
		assert.Contains(t, []float64{-1, 0, 1}, v, "index %d", i)
		if v == -1 {
			assert.GreaterOrEqual(t, i, 60, "bearish crossover should follow the reversal")
			bearish++
		}
	}
	assert.Equal(t, 1, bearish)
}

func TestComputeAllNoLookAhead(t *testing.T) {
	bars := walkBars(260, 7)
	const cut = 200

	full := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", bars))
	prefix := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", bars[:cut]))

	for _, name := range prefix.ColumnNames() {
		want := prefix.At(name, cut-1)
		got := full.At(name, cut-1)
		if math.IsNaN(want) {
			assert.True(t, math.IsNaN(got), "column %s: want NaN, got %v", name, got)
			continue
		}
		assert.InDelta(t, want, got, 1e-9, "column %s", name)
	}
}

func TestVolumeColumnsSkippedWithoutVolume(t *testing.T) {
	bars := flatBars(linearCloses(60))
	for i := range bars {
		bars[i].Volume = 0
	}

	s := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("^VIX", bars))
	assert.False(t, s.Has(ColVolumeSMA20))
	assert.False(t, s.Has(ColVolumeRatio))
	assert.False(t, s.Has(ColOBV))
}

// TestAgainstTalib cross-checks the classical indicators against an
// independent implementation. Seeding differs, so the comparison is on
// the final value after a long warmup where the seed has decayed.
func TestAgainstTalib(t *testing.T) {
	bars := walkBars(260, 42)
	s := NewEngine(DefaultParams()).ComputeAll(domain.NewSeries("TEST", bars))

	closes := s.Column(domain.ColClose)
	high := s.Column(domain.ColHigh)
	low := s.Column(domain.ColLow)
	n := len(closes)
	require.Equal(t, 260, n)

	sma := talib.Sma(closes, 20)
	assert.InDelta(t, sma[n-1], s.Last(SMACol(20)), 1e-9)

	rsi := talib.Rsi(closes, 14)
	assert.InDelta(t, rsi[n-1], s.Last(ColRSI), 1e-4)

	atr := talib.Atr(high, low, closes, 14)
	assert.InDelta(t, atr[n-1], s.Last(ColATR), 1e-4)

	macd, signal, hist := talib.Macd(closes, 12, 26, 9)
	assert.InDelta(t, macd[n-1], s.Last(ColMACD), 1e-4)
	assert.InDelta(t, signal[n-1], s.Last(ColMACDSignal), 1e-4)
	assert.InDelta(t, hist[n-1], s.Last(ColMACDHistogram), 1e-4)
}
