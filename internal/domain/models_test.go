package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "finite value", in: 42.5, want: "42.5"},
		{name: "zero", in: 0, want: "0"},
		{name: "negative", in: -3.25, want: "-3.25"},
		{name: "NaN becomes null", in: math.NaN(), want: "null"},
		{name: "positive infinity becomes null", in: math.Inf(1), want: "null"},
		{name: "negative infinity becomes null", in: math.Inf(-1), want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(Float(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestFloatUnmarshalJSON(t *testing.T) {
	var f Float
	require.NoError(t, json.Unmarshal([]byte("null"), &f))
	assert.True(t, math.IsNaN(float64(f)))

	require.NoError(t, json.Unmarshal([]byte("12.75"), &f))
	assert.Equal(t, 12.75, float64(f))
}

func TestRegimeSnapshotMarshal(t *testing.T) {
	snap := RegimeSnapshot{
		VIXLevel:        Float(math.NaN()),
		VIXRegime:       VIXRegimeUnknown,
		SpyTrend:        TrendUnknown,
		SpyAboveSMA200:  nil,
		MarketCondition: ConditionUnknown,
		RiskAppetite:    RiskNeutral,
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"vix_level":null`)
	assert.Contains(t, string(data), `"spy_above_sma200":null`)
	assert.Contains(t, string(data), `"market_condition":"unknown"`)
}

func makeBars(n int, start time.Time) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = Bar{
			Date:     start.AddDate(0, 0, i),
			Open:     price - 0.5,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			AdjClose: price,
			Volume:   1000 + int64(i),
		}
	}
	return bars
}

func TestNewSeries(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := NewSeries("SPY", makeBars(5, start))

	require.Equal(t, 5, s.Len())
	assert.Equal(t, []string{ColOpen, ColHigh, ColLow, ColClose, ColAdjClose, ColVolume}, s.ColumnNames())
	assert.Equal(t, 104.0, s.Last(ColClose))
	assert.Equal(t, 103.0, s.Prev(ColClose))
	assert.Equal(t, 1000.0, s.At(ColVolume, 0))

	last, ok := s.LastDate()
	require.True(t, ok)
	assert.Equal(t, start.AddDate(0, 0, 4), last)
}

func TestSeriesMissingColumn(t *testing.T) {
	s := NewSeries("SPY", makeBars(3, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, s.Column("RSI"))
	assert.False(t, s.Has("RSI"))
	assert.True(t, math.IsNaN(s.Last("RSI")))
	assert.True(t, math.IsNaN(s.At(ColClose, 99)))
}

func TestSeriesSetLengthMismatchPanics(t *testing.T) {
	s := NewSeries("SPY", makeBars(3, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Panics(t, func() {
		s.Set("bad", []float64{1, 2})
	})
}

func TestSeriesTruncate(t *testing.T) {
	s := NewSeries("SPY", makeBars(5, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	s.Set("derived", []float64{1, 2, 3, 4, 5})

	cut := s.Truncate(3)
	require.Equal(t, 3, cut.Len())
	assert.Equal(t, 3.0, cut.Last("derived"))

	// mutating the copy must not touch the original
	cut.Column("derived")[0] = 99
	assert.Equal(t, 1.0, s.Column("derived")[0])
}

func TestSeriesMarshalJSON(t *testing.T) {
	s := NewSeries("SPY", makeBars(2, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	s.Set("gap", []float64{math.NaN(), 0.5})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"dates":["2024-01-02","2024-01-03"]`)
	assert.Contains(t, string(data), `"gap":[null,0.5]`)
}
