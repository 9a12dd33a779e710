// Package analysis sequences one full end-of-day run: fetch the
// universe, enrich every series, score, classify the regime, generate
// signals and consolidate the result.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/config"
	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/indicators"
	"github.com/aristath/marketscan/internal/marketdata"
	"github.com/aristath/marketscan/internal/metrics"
	"github.com/aristath/marketscan/internal/regime"
	"github.com/aristath/marketscan/internal/scoring"
	"github.com/aristath/marketscan/internal/signals"
)

// Service orchestrates analysis runs.
type Service struct {
	cfg        *config.Config
	universe   *config.Universe
	market     *marketdata.Service
	indicators *indicators.Engine
	scoring    *scoring.Engine
	signals    *signals.Generator
	regime     *regime.Classifier
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// ServiceConfig wires an analysis service.
type ServiceConfig struct {
	Config   *config.Config
	Universe *config.Universe
	Market   *marketdata.Service
	Metrics  *metrics.Metrics // optional
	Log      zerolog.Logger
}

// NewService creates the orchestrator and its pure engines.
func NewService(cfg ServiceConfig) *Service {
	a := cfg.Config.Analysis
	log := cfg.Log

	return &Service{
		cfg:      cfg.Config,
		universe: cfg.Universe,
		market:   cfg.Market,
		indicators: indicators.NewEngine(indicators.Params{
			SMAPeriods:    a.SMAPeriods,
			ROCPeriods:    a.ROCPeriods,
			HVolPeriods:   a.HVolPeriods,
			ZScorePeriods: a.ZScorePeriods,
			RSIPeriod:     a.RSIPeriod,
			MACDFast:      a.MACDFast,
			MACDSlow:      a.MACDSlow,
			MACDSignal:    a.MACDSignal,
			ADXPeriod:     a.ADXPeriod,
			ATRPeriod:     a.ATRPeriod,
			BBPeriod:      a.BBPeriod,
			BBStd:         a.BBStd,
		}),
		scoring: scoring.NewEngine(a, log),
		signals: signals.New(a.Thresholds),
		regime:  regime.New(a.VIXLow, a.VIXMedium, log),
		metrics: cfg.Metrics,
		log:     log.With().Str("component", "analysis").Logger(),
	}
}

// Run executes one full analysis. Per-symbol failures are collected,
// never fatal; the run aborts only when no symbol at all produced
// data. A cancelled context yields a partial result for the symbols
// completed.
func (s *Service) Run(ctx context.Context) (*domain.AnalysisResult, error) {
	started := time.Now()
	session := s.market.Session()

	end := session.TodayNY()
	start := end.AddDate(0, 0, -s.cfg.Analysis.DataLookbackDays)

	s.log.Info().
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Int("universe", s.universe.Len()).
		Msg("Starting analysis run")

	data := s.market.FetchUniverse(ctx, s.universe.Symbols, start, end)
	if len(data.Bars) == 0 {
		s.countRun("failed", started)
		return nil, fmt.Errorf("%w: no symbols fetched", domain.ErrInsufficient)
	}

	enriched, failures := s.enrich(data)

	// Scoring needs every enriched series in place for benchmark
	// lookups, so it only starts once the enrichment barrier is
	// passed.
	scores := s.scoreAll(enriched)

	snapshot := s.regime.Classify(
		enriched[s.cfg.Analysis.VIXTicker],
		enriched[s.cfg.Analysis.SPYTicker],
	)

	result := s.consolidate(enriched, scores, snapshot)
	result.FailedSymbols = append(data.Failures, failures...)
	result.Metadata = domain.Metadata{
		RunID:               uuid.New().String(),
		AnalysisDate:        end.Format("2006-01-02"),
		GeneratedAt:         time.Now().UTC(),
		Version:             s.cfg.Version,
		InstrumentsAnalyzed: len(result.Instruments),
		DateRange: domain.DateRange{
			Start: start.Format("2006-01-02"),
			End:   end.Format("2006-01-02"),
		},
	}

	if s.cfg.IncludeProcessedData {
		result.ProcessedData = enriched
	}

	s.countRun("ok", started)
	if s.metrics != nil {
		s.metrics.SymbolsAnalyzed.Set(float64(len(result.Instruments)))
		s.metrics.FailedSymbols.Set(float64(len(result.FailedSymbols)))
	}

	s.log.Info().
		Int("instruments", len(result.Instruments)).
		Int("failed", len(result.FailedSymbols)).
		Dur("elapsed", time.Since(started)).
		Msg("Analysis run complete")

	return result, nil
}

// enrich computes the derived columns for every fetched symbol in
// parallel. Indicator computation is pure, so the only coordination
// is the result map.
func (s *Service) enrich(data *marketdata.UniverseData) (map[string]*domain.Series, []domain.FetchFailure) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		enriched = make(map[string]*domain.Series, len(data.Bars))
		failures []domain.FetchFailure
	)

	for _, sym := range s.universe.Symbols {
		bars, ok := data.Bars[sym.Ticker]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(ticker string, bars []domain.Bar) {
			defer wg.Done()

			if err := validateBars(bars); err != nil {
				s.log.Error().Err(err).Str("ticker", ticker).Msg("Invariant violation, skipping symbol")
				mu.Lock()
				failures = append(failures, domain.FetchFailure{Ticker: ticker, Reason: err.Error()})
				mu.Unlock()
				return
			}

			series := s.indicators.ComputeAll(domain.NewSeries(ticker, bars))
			mu.Lock()
			enriched[ticker] = series
			mu.Unlock()
		}(sym.Ticker, bars)
	}
	wg.Wait()

	return enriched, failures
}

// scoreAll runs the scoring engine across the universe with
// cross-series benchmark lookups.
func (s *Service) scoreAll(enriched map[string]*domain.Series) map[string]domain.ScoreSet {
	scores := make(map[string]domain.ScoreSet, len(enriched))
	for _, sym := range s.universe.Symbols {
		series, ok := enriched[sym.Ticker]
		if !ok {
			continue
		}
		scores[sym.Ticker] = s.scoring.Score(series, enriched[sym.Benchmark])
	}
	return scores
}

// validateBars rejects series that slipped through cleaning with
// impossible prices.
func validateBars(bars []domain.Bar) error {
	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("%w: non-positive price on %s", domain.ErrInternal, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

func (s *Service) countRun(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RunsTotal.WithLabelValues(outcome).Inc()
	s.metrics.RunDuration.Observe(time.Since(started).Seconds())
}
