package scoring

import (
	"math"

	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/pkg/formulas"
)

// minAlignedRows is the smallest inner join that produces a meaningful
// relative-strength reading.
const minAlignedRows = 50

// rsMomentumPeriod is the lookback of the ratio-momentum kicker.
const rsMomentumPeriod = 10

// RelativeStrengthScorer ranks the symbol/benchmark price ratio within
// its trailing year and adds a short momentum kicker on the ratio.
type RelativeStrengthScorer struct {
	PercentileWindow     int
	PercentileMinPeriods int
}

// Calculate returns the relative-strength score and its components. A
// symbol benchmarked against itself, or one without benchmark data,
// scores neutral.
func (r *RelativeStrengthScorer) Calculate(s *domain.Series, benchmark *domain.Series) (float64, map[string]float64) {
	neutral := map[string]float64{"rs_rank": neutralScore, "rs_momentum": 0}

	if benchmark == nil || s == nil || benchmark.Ticker == s.Ticker {
		return neutralScore, neutral
	}

	ratio := alignedRatio(s, benchmark)
	if len(ratio) < minAlignedRows {
		return neutralScore, neutral
	}

	rank := orNeutral(LastPercentileRank(ratio, r.PercentileWindow, r.PercentileMinPeriods))

	momentum := 0.0
	if n := len(ratio); n > rsMomentumPeriod {
		prev := ratio[n-1-rsMomentumPeriod]
		cur := ratio[n-1]
		if prev != 0 && !math.IsNaN(prev) && !math.IsNaN(cur) {
			momentum = cur/prev - 1
		}
	}

	score := formulas.Clamp(rank+100*momentum*0.5, 0, 100)
	return score, map[string]float64{"rs_rank": rank, "rs_momentum": momentum}
}

// alignedRatio inner-joins the two series on date and returns the
// close-price ratio for the common rows. Both series are ascending by
// date, so one merge pass suffices.
func alignedRatio(s, benchmark *domain.Series) []float64 {
	symClose := s.Column(domain.ColClose)
	benchClose := benchmark.Column(domain.ColClose)

	ratio := make([]float64, 0, s.Len())
	i, j := 0, 0
	for i < s.Len() && j < benchmark.Len() {
		switch {
		case s.Dates[i].Before(benchmark.Dates[j]):
			i++
		case benchmark.Dates[j].Before(s.Dates[i]):
			j++
		default:
			if benchClose[j] != 0 {
				ratio = append(ratio, symClose[i]/benchClose[j])
			} else {
				ratio = append(ratio, math.NaN())
			}
			i++
			j++
		}
	}
	return ratio
}
