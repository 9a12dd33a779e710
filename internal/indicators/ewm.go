package indicators

import "math"

// EWMMean is exponential smoothing with recursive (adjust=false)
// weighting: the seed is the first non-NaN value and
// y[t] = (1-alpha)*y[t-1] + alpha*x[t] thereafter. NaN inputs leave the
// running value unchanged but still decay the carried weight, so a
// resumed series blends with the correct relative weights. The output
// is NaN until minPeriods non-NaN observations have been seen.
func EWMMean(s []float64, alpha float64, minPeriods int) []float64 {
	out := nanSlice(len(s))
	if alpha <= 0 || alpha > 1 {
		return out
	}

	oldWtFactor := 1 - alpha
	newWt := alpha

	weightedAvg := math.NaN()
	oldWt := 1.0
	nobs := 0

	for i, cur := range s {
		isObs := !math.IsNaN(cur)
		if isObs {
			nobs++
		}

		if !math.IsNaN(weightedAvg) {
			oldWt *= oldWtFactor
			if isObs {
				weightedAvg = (oldWt*weightedAvg + newWt*cur) / (oldWt + newWt)
				oldWt = 1.0
			}
		} else if isObs {
			weightedAvg = cur
		}

		if nobs >= minPeriods {
			out[i] = weightedAvg
		}
	}
	return out
}

// EWMSpan smooths with the span parameterization used by MACD:
// alpha = 2/(span+1).
func EWMSpan(s []float64, span, minPeriods int) []float64 {
	return EWMMean(s, 2/(float64(span)+1), minPeriods)
}

// Wilder smooths with alpha = 1/period, the form shared by RSI, ATR
// and ADX. The output is masked until period observations are seen.
func Wilder(s []float64, period int) []float64 {
	return EWMMean(s, 1/float64(period), period)
}
