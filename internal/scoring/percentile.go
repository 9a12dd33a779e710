package scoring

import "math"

// Default window used for every percentile-based score component.
const (
	DefaultPercentileWindow     = 252
	DefaultPercentileMinPeriods = 50
)

// RollingPercentileRank ranks each value against the trailing window that
// precedes it: out[i] is the fraction of s[i-window+1 .. i-1] strictly less
// than s[i], times 100. Ties do not count. The rank is NaN until the window
// holds at least minPeriods non-NaN observations, and NaN when the current
// value itself is NaN.
func RollingPercentileRank(s []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(s))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 1 {
		return out
	}

	for i := range s {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}

		nobs := 0
		for j := lo; j <= i; j++ {
			if !math.IsNaN(s[j]) {
				nobs++
			}
		}
		if nobs < minPeriods {
			continue
		}

		cur := s[i]
		if math.IsNaN(cur) {
			continue
		}

		prior := i - lo
		if prior == 0 {
			continue
		}

		less := 0
		for j := lo; j < i; j++ {
			if s[j] < cur {
				less++
			}
		}
		out[i] = 100 * float64(less) / float64(prior)
	}
	return out
}

// LastPercentileRank returns the rank of the final value, or NaN when the
// series is too short to rank.
func LastPercentileRank(s []float64, window, minPeriods int) float64 {
	ranks := RollingPercentileRank(s, window, minPeriods)
	if len(ranks) == 0 {
		return math.NaN()
	}
	return ranks[len(ranks)-1]
}
