package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/marketscan/internal/domain"
)

// Config tunes the keyless chart client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client fetches daily history from the keyless chart API. The API has
// no auth and serves up to ten years of daily bars in one response;
// the client filters to the requested window locally. A shared rate
// limiter keeps request spacing polite, so one instance is safe to
// share across workers.
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	loc     *time.Location
	log     zerolog.Logger
}

// New creates a chart client.
func New(cfg Config, log zerolog.Logger) *Client {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		// one request per two seconds, no bursts
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		loc:     loc,
		log:     log.With().Str("client", "chart").Logger(),
	}
}

// FetchDaily returns the daily bars for ticker within [start, end].
// The exchange code is unused; chart tickers carry their own prefix
// (e.g. ^VIX for the volatility index).
func (c *Client) FetchDaily(ctx context.Context, ticker, exchange string, start, end time.Time) ([]domain.Bar, error) {
	_ = exchange

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		bars, err := c.request(ctx, ticker)
		if err == nil {
			return filterWindow(bars, start, end), nil
		}
		lastErr = err

		if !domain.Retryable(err) || attempt == c.cfg.MaxRetries {
			break
		}

		wait := time.Duration(1<<uint(attempt)) * time.Second
		c.log.Warn().Err(err).
			Str("ticker", ticker).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("Fetch failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func (c *Client) request(ctx context.Context, ticker string) ([]domain.Bar, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", "10y")

	reqURL := c.cfg.BaseURL + "/" + url.PathEscape(ticker) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	// Headers mimic a browser; the API rejects bare clients.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status 429", domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", domain.ErrTransient, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", domain.ErrProviderRejected, err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderRejected, result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("ticker", ticker).Msg("No history returned")
		return nil, nil
	}

	return c.toBars(result), nil
}

// toBars flattens the parallel arrays into bars, skipping null rows.
// Bar dates are normalized to the NY civil date at midnight UTC.
func (c *Client) toBars(result chartResponse) []domain.Bar {
	data := result.Chart.Result[0]
	if len(data.Indicators.Quote) == 0 {
		return nil
	}
	quote := data.Indicators.Quote[0]

	var adjClose []float64
	if len(data.Indicators.AdjClose) > 0 {
		adjClose = data.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.Bar, 0, len(data.Timestamp))
	for i, ts := range data.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// null rows deserialize as zeros
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		adj := quote.Close[i]
		if i < len(adjClose) && adjClose[i] != 0 {
			adj = adjClose[i]
		}

		var volume int64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		ny := time.Unix(ts, 0).In(c.loc)
		bars = append(bars, domain.Bar{
			Date:     time.Date(ny.Year(), ny.Month(), ny.Day(), 0, 0, 0, 0, time.UTC),
			Open:     quote.Open[i],
			High:     quote.High[i],
			Low:      quote.Low[i],
			Close:    quote.Close[i],
			AdjClose: adj,
			Volume:   volume,
		})
	}
	return bars
}

func filterWindow(bars []domain.Bar, start, end time.Time) []domain.Bar {
	out := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
