package scoring

import (
	"math"

	"github.com/aristath/marketscan/pkg/formulas"
)

// neutralScore stands in for any component whose inputs are missing.
const neutralScore = 50.0

// normalize maps v linearly from [lo, hi] to [0, 100] and clamps.
// NaN passes through so callers can apply their own default.
func normalize(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return formulas.Clamp(100*(v-lo)/(hi-lo), 0, 100)
}

// orNeutral replaces NaN with the neutral score.
func orNeutral(v float64) float64 {
	if math.IsNaN(v) {
		return neutralScore
	}
	return v
}

// orDefault replaces NaN with def.
func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}
