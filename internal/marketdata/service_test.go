package marketdata

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/marketscan/internal/config"
	"github.com/aristath/marketscan/internal/domain"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls []string
	fetch func(ticker string) ([]domain.Bar, error)
}

func (f *fakeProvider) FetchDaily(ctx context.Context, ticker, exchange string, start, end time.Time) ([]domain.Bar, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ticker)
	f.mu.Unlock()
	if f.fetch != nil {
		return f.fetch(ticker)
	}
	return makeBars(10), nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCache struct {
	mu   sync.Mutex
	puts map[string][]domain.Bar
	gets int
	get  func(ticker string) ([]domain.Bar, error)
}

func (f *fakeCache) Put(ticker, source string, bars []domain.Bar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == nil {
		f.puts = make(map[string][]domain.Bar)
	}
	f.puts[ticker] = bars
	return nil
}

func (f *fakeCache) Get(ticker string, start, end time.Time) ([]domain.Bar, error) {
	f.mu.Lock()
	f.gets++
	f.mu.Unlock()
	if f.get != nil {
		return f.get(ticker)
	}
	return nil, nil
}

// makeBars returns n ascending bars starting 2024-01-02, well before
// the fixed test clock.
func makeBars(n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = domain.Bar{
			Date:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			AdjClose: c,
			Volume:   1000,
		}
	}
	return bars
}

type serviceOpts struct {
	clock    time.Time
	chart    Provider
	newEODHD ProviderFactory
	cache    BarStore
	minRows  int
}

func newTestService(opts serviceOpts) *Service {
	if opts.clock.IsZero() {
		// 17:00 NY, session closed
		opts.clock = time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	}
	if opts.minRows == 0 {
		opts.minRows = 5
	}
	if opts.newEODHD == nil {
		opts.newEODHD = func() Provider { return &fakeProvider{} }
	}
	if opts.chart == nil {
		opts.chart = &fakeProvider{}
	}
	return NewService(ServiceConfig{
		Fetch: config.Fetch{
			BatchSize:  2,
			MaxRetries: 0,
		},
		MinRows:   opts.minRows,
		VIXTicker: "^VIX",
		Session:   NewSessionWithClock(FixedClock{T: opts.clock}),
		Chart:     opts.chart,
		NewEODHD:  opts.newEODHD,
		Cache:     opts.cache,
		Log:       zerolog.Nop(),
	})
}

func TestCleanTrimsTodayWhileSessionOpen(t *testing.T) {
	bars := []domain.Bar{
		{Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1},
		{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1},
	}

	// 14:00 NY on the 15th: today's bar is provisional
	open := newTestService(serviceOpts{clock: time.Date(2024, 1, 15, 19, 0, 0, 0, time.UTC)})
	got := open.Clean(bars)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), got[0].Date)

	// 16:16 NY: today's bar is final
	closed := newTestService(serviceOpts{clock: time.Date(2024, 1, 15, 21, 16, 0, 0, time.UTC)})
	assert.Len(t, closed.Clean(bars), 2)
}

func TestCleanDropsNonPositiveAndSorts(t *testing.T) {
	svc := newTestService(serviceOpts{})
	bars := []domain.Bar{
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 0, Close: 1},
	}

	got := svc.Clean(bars)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Before(got[1].Date))
}

func TestFetchRouting(t *testing.T) {
	chart := &fakeProvider{}
	var factoryCalls atomic.Int32
	keyed := &fakeProvider{}
	svc := newTestService(serviceOpts{
		chart: chart,
		newEODHD: func() Provider {
			factoryCalls.Add(1)
			return keyed
		},
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	// the volatility index routes keyless even without the provider hint
	_, err := svc.Fetch(context.Background(), domain.Symbol{Ticker: "^VIX"}, start, end)
	require.NoError(t, err)
	_, err = svc.Fetch(context.Background(), domain.Symbol{Ticker: "GLD", Provider: "chart"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, chart.callCount())
	assert.Equal(t, int32(0), factoryCalls.Load())

	_, err = svc.Fetch(context.Background(), domain.Symbol{Ticker: "SPY", Exchange: "US"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, keyed.callCount())
	assert.Equal(t, int32(1), factoryCalls.Load())
}

func TestFetchInsufficientRows(t *testing.T) {
	svc := newTestService(serviceOpts{
		newEODHD: func() Provider {
			return &fakeProvider{fetch: func(string) ([]domain.Bar, error) {
				return makeBars(3), nil
			}}
		},
	})

	_, err := svc.Fetch(context.Background(), domain.Symbol{Ticker: "SPY"},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrInsufficient)
}

func TestFetchCacheFallback(t *testing.T) {
	failing := func() Provider {
		return &fakeProvider{fetch: func(string) ([]domain.Bar, error) {
			return nil, fmt.Errorf("%w: status 503", domain.ErrTransient)
		}}
	}

	t.Run("cache serves enough history", func(t *testing.T) {
		cache := &fakeCache{get: func(string) ([]domain.Bar, error) {
			return makeBars(10), nil
		}}
		svc := newTestService(serviceOpts{newEODHD: failing, cache: cache})

		bars, err := svc.Fetch(context.Background(), domain.Symbol{Ticker: "SPY"},
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Len(t, bars, 10)
	})

	t.Run("cache too thin keeps the provider error", func(t *testing.T) {
		cache := &fakeCache{get: func(string) ([]domain.Bar, error) {
			return makeBars(2), nil
		}}
		svc := newTestService(serviceOpts{newEODHD: failing, cache: cache})

		_, err := svc.Fetch(context.Background(), domain.Symbol{Ticker: "SPY"},
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, domain.ErrTransient)
	})

	t.Run("cancellation is never masked", func(t *testing.T) {
		cache := &fakeCache{get: func(string) ([]domain.Bar, error) {
			return makeBars(10), nil
		}}
		svc := newTestService(serviceOpts{
			newEODHD: func() Provider {
				return &fakeProvider{fetch: func(string) ([]domain.Bar, error) {
					return nil, context.Canceled
				}}
			},
			cache: cache,
		})

		_, err := svc.Fetch(context.Background(), domain.Symbol{Ticker: "SPY"},
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, cache.gets)
	})
}

func TestFetchStoresSuccessInCache(t *testing.T) {
	cache := &fakeCache{}
	svc := newTestService(serviceOpts{cache: cache})

	_, err := svc.Fetch(context.Background(), domain.Symbol{Ticker: "SPY"},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, cache.puts["SPY"], 10)
}

func TestFetchUniverse(t *testing.T) {
	chart := &fakeProvider{}
	var factoryCalls atomic.Int32
	svc := newTestService(serviceOpts{
		chart: chart,
		newEODHD: func() Provider {
			factoryCalls.Add(1)
			return &fakeProvider{fetch: func(ticker string) ([]domain.Bar, error) {
				if ticker == "BAD" {
					return nil, fmt.Errorf("%w: status 404", domain.ErrProviderRejected)
				}
				return makeBars(10), nil
			}}
		},
	})

	symbols := []domain.Symbol{
		{Ticker: "SPY"},
		{Ticker: "BAD"},
		{Ticker: "QQQ"},
		{Ticker: "TLT"},
		{Ticker: "^VIX", Provider: "chart"},
	}

	data := svc.FetchUniverse(context.Background(), symbols,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	assert.Len(t, data.Bars, 4)
	assert.Contains(t, data.Bars, "^VIX")
	require.Len(t, data.Failures, 1)
	assert.Equal(t, "BAD", data.Failures[0].Ticker)
	assert.Contains(t, data.Failures[0].Reason, "404")

	assert.Equal(t, 1, chart.callCount())
	// one keyed client per worker, never per symbol
	assert.LessOrEqual(t, factoryCalls.Load(), int32(2))
	assert.Greater(t, factoryCalls.Load(), int32(0))
}

func TestFetchUniverseCancelled(t *testing.T) {
	svc := newTestService(serviceOpts{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	symbols := []domain.Symbol{{Ticker: "SPY"}, {Ticker: "QQQ"}, {Ticker: "TLT"}}
	data := svc.FetchUniverse(ctx, symbols,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	assert.Empty(t, data.Bars)
	require.Len(t, data.Failures, 3)
	for i, sym := range symbols {
		assert.Equal(t, sym.Ticker, data.Failures[i].Ticker)
	}
}

func TestFetchUniverseZeroBatchSize(t *testing.T) {
	// an unvalidated config must still run on a single worker
	svc := NewService(ServiceConfig{
		Fetch:     config.Fetch{BatchSize: 0},
		MinRows:   5,
		VIXTicker: "^VIX",
		Session:   NewSessionWithClock(FixedClock{T: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)}),
		Chart:     &fakeProvider{},
		NewEODHD:  func() Provider { return &fakeProvider{} },
		Log:       zerolog.Nop(),
	})

	symbols := []domain.Symbol{{Ticker: "SPY"}, {Ticker: "QQQ"}, {Ticker: "TLT"}}
	data := svc.FetchUniverse(context.Background(), symbols,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	assert.Len(t, data.Bars, 3)
	assert.Empty(t, data.Failures)
}
