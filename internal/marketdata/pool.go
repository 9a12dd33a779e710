package marketdata

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aristath/marketscan/internal/domain"
)

// UniverseData is the outcome of a universe fetch: cleaned bars per
// ticker plus the symbols that failed. Failures never abort the fetch.
type UniverseData struct {
	Bars     map[string][]domain.Bar
	Failures []domain.FetchFailure
}

// FetchUniverse fetches every symbol through a bounded worker pool.
// Pool width equals the batch size, each worker owns its keyed client,
// and the dispatcher pauses between batches. A cancelled context skips
// the remaining symbols, which are reported as failures.
func (s *Service) FetchUniverse(ctx context.Context, symbols []domain.Symbol, start, end time.Time) *UniverseData {
	type fetchResult struct {
		ticker string
		bars   []domain.Bar
		err    error
	}

	workers := s.fetchCfg.BatchSize
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan domain.Symbol)
	results := make(chan fetchResult, len(symbols))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Lazily created so chart-only workloads never build a
			// keyed client.
			var keyed Provider

			for sym := range jobs {
				if ctx.Err() != nil {
					results <- fetchResult{ticker: sym.Ticker, err: ctx.Err()}
					continue
				}

				provider, name := s.chart, providerChart
				if !s.routesToChart(sym) {
					if keyed == nil {
						keyed = s.newEODHD()
					}
					provider, name = keyed, providerEODHD
				}

				bars, err := s.fetch(ctx, provider, name, sym, start, end)
				results <- fetchResult{ticker: sym.Ticker, bars: bars, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		for i, sym := range symbols {
			if i > 0 && i%workers == 0 && ctx.Err() == nil {
				delay := s.fetchCfg.BatchDelayMin + rng.Float64()*(s.fetchCfg.BatchDelayMax-s.fetchCfg.BatchDelayMin)
				s.log.Debug().
					Int("dispatched", i).
					Float64("delay_s", delay).
					Msg("Batch delay")
				sleepCtx(ctx, time.Duration(delay*float64(time.Second)))
			}
			jobs <- sym
		}
	}()

	byTicker := make(map[string]error, len(symbols))
	data := &UniverseData{Bars: make(map[string][]domain.Bar, len(symbols))}
	for range symbols {
		r := <-results
		if r.err != nil {
			byTicker[r.ticker] = r.err
			continue
		}
		data.Bars[r.ticker] = r.bars
	}
	wg.Wait()

	// Failures in universe order so repeated runs report identically.
	for _, sym := range symbols {
		if err, ok := byTicker[sym.Ticker]; ok {
			s.log.Warn().Err(err).Str("ticker", sym.Ticker).Msg("Symbol fetch failed")
			data.Failures = append(data.Failures, domain.FetchFailure{
				Ticker: sym.Ticker,
				Reason: err.Error(),
			})
		}
	}

	s.log.Info().
		Int("fetched", len(data.Bars)).
		Int("failed", len(data.Failures)).
		Msg("Universe fetch complete")
	return data
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
