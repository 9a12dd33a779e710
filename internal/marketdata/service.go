package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/config"
	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/internal/metrics"
)

// Provider fetches daily bars for one ticker.
type Provider interface {
	FetchDaily(ctx context.Context, ticker, exchange string, start, end time.Time) ([]domain.Bar, error)
}

// ProviderFactory builds a fresh keyed-provider client. The keyed
// client keeps throttle state per instance, so each worker gets its
// own.
type ProviderFactory func() Provider

// BarStore caches fetched bars. Implemented by database.BarCache.
type BarStore interface {
	Put(ticker, source string, bars []domain.Bar) error
	Get(ticker string, start, end time.Time) ([]domain.Bar, error)
}

const (
	providerEODHD = "eodhd"
	providerChart = "chart"
)

// Service is the data acquisition layer: provider routing, cleaning,
// session trimming, caching and the universe worker pool.
type Service struct {
	fetchCfg  config.Fetch
	minRows   int
	vixTicker string

	session  *Session
	chart    Provider
	newEODHD ProviderFactory
	cache    BarStore
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Fetch     config.Fetch
	MinRows   int
	VIXTicker string
	Session   *Session
	Chart     Provider
	NewEODHD  ProviderFactory
	Cache     BarStore         // optional
	Metrics   *metrics.Metrics // optional
	Log       zerolog.Logger
}

// NewService creates the acquisition service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		fetchCfg:  cfg.Fetch,
		minRows:   cfg.MinRows,
		vixTicker: cfg.VIXTicker,
		session:   cfg.Session,
		chart:     cfg.Chart,
		newEODHD:  cfg.NewEODHD,
		cache:     cfg.Cache,
		metrics:   cfg.Metrics,
		log:       cfg.Log.With().Str("component", "marketdata").Logger(),
	}
}

// Session exposes the session oracle for callers that need the as-of
// date.
func (s *Service) Session() *Session {
	return s.session
}

// Fetch returns the cleaned, session-trimmed bars for one symbol.
func (s *Service) Fetch(ctx context.Context, sym domain.Symbol, start, end time.Time) ([]domain.Bar, error) {
	provider, name := s.routeNew(sym)
	return s.fetch(ctx, provider, name, sym, start, end)
}

// routeNew resolves the provider for a symbol, creating a fresh keyed
// client when the symbol routes to the keyed API. The volatility index
// always routes to the keyless chart API.
func (s *Service) routeNew(sym domain.Symbol) (Provider, string) {
	if s.routesToChart(sym) {
		return s.chart, providerChart
	}
	return s.newEODHD(), providerEODHD
}

func (s *Service) routesToChart(sym domain.Symbol) bool {
	return sym.Provider == providerChart || sym.Ticker == s.vixTicker
}

func (s *Service) fetch(ctx context.Context, provider Provider, name string, sym domain.Symbol, start, end time.Time) ([]domain.Bar, error) {
	bars, err := provider.FetchDaily(ctx, sym.Ticker, sym.Exchange, start, end)
	if err != nil {
		bars, err = s.cacheFallback(sym.Ticker, start, end, err)
		if err != nil {
			s.countFetch(name, "error")
			return nil, err
		}
		s.countFetch(name, "cache")
	} else {
		s.countFetch(name, "ok")
		if s.cache != nil && len(bars) > 0 {
			if err := s.cache.Put(sym.Ticker, name, bars); err != nil {
				s.log.Warn().Err(err).Str("ticker", sym.Ticker).Msg("Failed to cache bars")
			}
		}
	}

	bars = s.Clean(bars)
	if len(bars) < s.minRows {
		return nil, fmt.Errorf("%w: %d rows, need %d", domain.ErrInsufficient, len(bars), s.minRows)
	}
	return bars, nil
}

// cacheFallback serves a provider failure from the bar cache when the
// cache holds enough history. Cancellations are never masked.
func (s *Service) cacheFallback(ticker string, start, end time.Time, fetchErr error) ([]domain.Bar, error) {
	if s.cache == nil || errors.Is(fetchErr, context.Canceled) || errors.Is(fetchErr, context.DeadlineExceeded) {
		return nil, fetchErr
	}

	cached, err := s.cache.Get(ticker, start, end)
	if err != nil || len(cached) < s.minRows {
		return nil, fetchErr
	}

	s.log.Warn().
		Str("ticker", ticker).
		Int("rows", len(cached)).
		AnErr("fetch_error", fetchErr).
		Msg("Provider failed, serving bars from cache")
	return cached, nil
}

// Clean sorts bars ascending by date, drops rows with non-positive
// prices, and drops today's bar while the session is still open.
func (s *Service) Clean(bars []domain.Bar) []domain.Bar {
	trimToday := !s.session.MarketClosedForToday()

	out := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			continue
		}
		if trimToday && s.session.IsToday(b.Date) {
			continue
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (s *Service) countFetch(provider, outcome string) {
	if s.metrics != nil {
		s.metrics.FetchTotal.WithLabelValues(provider, outcome).Inc()
	}
}
