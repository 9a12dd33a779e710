package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.True(t, math.IsNaN(Mean(nil)))
}

func TestStdDevIsSampleStdDev(t *testing.T) {
	// sample std of {1,2,3,4} = sqrt(5/3)
	got := StdDev([]float64{1, 2, 3, 4})
	assert.InDelta(t, math.Sqrt(5.0/3.0), got, 1e-12)

	assert.True(t, math.IsNaN(StdDev([]float64{5})))
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	want := StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, want, AnnualizedVolatility(returns), 1e-12)
}

func TestLogReturns(t *testing.T) {
	got := LogReturns([]float64{100, 110, 99})
	assert.InDelta(t, math.Log(1.1), got[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), got[1], 1e-12)

	withZero := LogReturns([]float64{100, 0, 99})
	assert.True(t, math.IsNaN(withZero[0]))
	assert.True(t, math.IsNaN(withZero[1]))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{name: "odd count", in: []float64{3, 1, 2}, want: 2},
		{name: "even count", in: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "single", in: []float64{7}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Median(tt.in))
		})
	}

	assert.True(t, math.IsNaN(Median(nil)))

	// input must not be reordered
	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5, 0, 100))
	assert.Equal(t, 100.0, Clamp(250, 0, 100))
	assert.Equal(t, 50.0, Clamp(50, 0, 100))
	assert.True(t, math.IsNaN(Clamp(math.NaN(), 0, 100)))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, Round2(66.666666))
	assert.Equal(t, -0.13, Round2(-0.125001))
}
