package analysis

import (
	"sort"

	"github.com/aristath/marketscan/internal/domain"
)

// rankings sorts the scored universe by each criterion. All lists are
// descending except volatility, which is ascending so the calmest
// symbols rank first. Ties break by declared universe position. The
// volatility index feeds the regime classifier and is scored, but it
// is not a tradable instrument, so it stays out of the rankings.
func (s *Service) rankings(scores map[string]domain.ScoreSet) domain.Rankings {
	entries := make([]domain.RankingEntry, 0, len(scores))
	for _, sym := range s.universe.Symbols {
		if sym.Ticker == s.cfg.Analysis.VIXTicker {
			continue
		}
		set, ok := scores[sym.Ticker]
		if !ok {
			continue
		}
		entries = append(entries, domain.RankingEntry{
			Ticker:           sym.Ticker,
			Composite:        set.Composite,
			Trend:            set.Trend,
			Momentum:         set.Momentum,
			Volatility:       set.Volatility,
			RelativeStrength: set.RelativeStrength,
		})
	}

	return domain.Rankings{
		ByCompositeScore:   s.rank(entries, func(e domain.RankingEntry) float64 { return e.Composite }, false),
		ByTrend:            s.rank(entries, func(e domain.RankingEntry) float64 { return e.Trend }, false),
		ByMomentum:         s.rank(entries, func(e domain.RankingEntry) float64 { return e.Momentum }, false),
		ByVolatility:       s.rank(entries, func(e domain.RankingEntry) float64 { return e.Volatility }, true),
		ByRelativeStrength: s.rank(entries, func(e domain.RankingEntry) float64 { return e.RelativeStrength }, false),
	}
}

func (s *Service) rank(entries []domain.RankingEntry, key func(domain.RankingEntry) float64, ascending bool) []domain.RankingEntry {
	out := append([]domain.RankingEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki == kj {
			return s.universe.Position(out[i].Ticker) < s.universe.Position(out[j].Ticker)
		}
		if ascending {
			return ki < kj
		}
		return ki > kj
	})
	return out
}
