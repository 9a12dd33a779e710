package indicators

import (
	"math"

	"github.com/aristath/marketscan/pkg/formulas"
)

// Rolling-window helpers with NaN-aware window accounting: a value is
// emitted only when the trailing window holds at least minPeriods
// non-NaN observations, and aggregates ignore NaN entries. Each output
// row depends only on rows at or before it.

// Shift returns s moved forward by n rows, with NaN filling the head.
func Shift(s []float64, n int) []float64 {
	out := nanSlice(len(s))
	for i := n; i < len(s); i++ {
		out[i] = s[i-n]
	}
	return out
}

// Diff returns the first difference of s. The first row is NaN.
func Diff(s []float64) []float64 {
	out := nanSlice(len(s))
	for i := 1; i < len(s); i++ {
		out[i] = s[i] - s[i-1]
	}
	return out
}

// PctChange returns the n-period fractional change s[i]/s[i-n] - 1.
func PctChange(s []float64, n int) []float64 {
	out := nanSlice(len(s))
	for i := n; i < len(s); i++ {
		out[i] = s[i]/s[i-n] - 1
	}
	return out
}

// RollingMean returns the trailing mean over window rows.
func RollingMean(s []float64, window, minPeriods int) []float64 {
	return rollingApply(s, window, minPeriods, formulas.Mean)
}

// RollingStd returns the trailing sample standard deviation (ddof=1)
// over window rows.
func RollingStd(s []float64, window, minPeriods int) []float64 {
	return rollingApply(s, window, minPeriods, formulas.StdDev)
}

// RollingMedian returns the trailing median over window rows.
func RollingMedian(s []float64, window, minPeriods int) []float64 {
	return rollingApply(s, window, minPeriods, formulas.Median)
}

// RollingMax returns the trailing maximum over window rows.
func RollingMax(s []float64, window, minPeriods int) []float64 {
	return rollingApply(s, window, minPeriods, func(vals []float64) float64 {
		m := math.Inf(-1)
		for _, v := range vals {
			if v > m {
				m = v
			}
		}
		return m
	})
}

// RollingMin returns the trailing minimum over window rows.
func RollingMin(s []float64, window, minPeriods int) []float64 {
	return rollingApply(s, window, minPeriods, func(vals []float64) float64 {
		m := math.Inf(1)
		for _, v := range vals {
			if v < m {
				m = v
			}
		}
		return m
	})
}

// rollingApply runs agg over the non-NaN values of each trailing
// window. Fewer than minPeriods observations yields NaN.
func rollingApply(s []float64, window, minPeriods int, agg func([]float64) float64) []float64 {
	out := nanSlice(len(s))
	if window <= 0 {
		return out
	}

	valid := make([]float64, 0, window)
	for i := range s {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}

		valid = valid[:0]
		for j := lo; j <= i; j++ {
			if !math.IsNaN(s[j]) {
				valid = append(valid, s[j])
			}
		}
		if len(valid) < minPeriods || len(valid) == 0 {
			continue
		}
		out[i] = agg(valid)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
