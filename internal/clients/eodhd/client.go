package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/aristath/marketscan/internal/domain"
)

// Config tunes one client instance.
type Config struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	RequestDelayMin float64 // seconds
	RequestDelayMax float64 // seconds
	MaxRetries      int
	RateLimitWait   time.Duration // base wait for 429, scaled linearly by attempt
}

// Client fetches daily EOD history from the keyed provider. The
// inter-request throttle state and the RNG are per instance, so a
// client must not be shared across concurrent workers; create one per
// worker instead.
type Client struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	rng     *rand.Rand
	log     zerolog.Logger

	lastRequest time.Time
}

// New creates an EODHD client.
func New(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "eodhd",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: log.With().Str("client", "eodhd").Logger(),
	}
}

// FetchDaily returns the daily bars for ticker.exchange within
// [start, end], back-adjusted to the split/dividend-adjusted scale.
func (c *Client) FetchDaily(ctx context.Context, ticker, exchange string, start, end time.Time) ([]domain.Bar, error) {
	if c.cfg.Token == "" {
		return nil, fmt.Errorf("%w: EODHD_API_TOKEN not set", domain.ErrConfigMissing)
	}
	if exchange == "" {
		exchange = "US"
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		bars, err := c.request(ctx, ticker, exchange, start, end)
		if err == nil {
			return bars, nil
		}
		lastErr = err

		if !domain.Retryable(err) || attempt == c.cfg.MaxRetries {
			break
		}

		wait := c.backoff(err, attempt)
		c.log.Warn().Err(err).
			Str("ticker", ticker).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("Fetch failed, retrying")
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// throttle enforces the randomized inter-request delay. State is per
// client instance.
func (c *Client) throttle(ctx context.Context) error {
	delay := c.cfg.RequestDelayMin + c.rng.Float64()*(c.cfg.RequestDelayMax-c.cfg.RequestDelayMin)
	wait := time.Duration(delay*float64(time.Second)) - time.Since(c.lastRequest)
	if wait > 0 {
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// backoff picks the retry wait: linear for rate limits, exponential
// base 2 for transient failures.
func (c *Client) backoff(err error, attempt int) time.Duration {
	if errors.Is(err, domain.ErrRateLimited) {
		return c.cfg.RateLimitWait * time.Duration(attempt+1)
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

func (c *Client) request(ctx context.Context, ticker, exchange string, start, end time.Time) ([]domain.Bar, error) {
	params := url.Values{}
	params.Add("api_token", c.cfg.Token)
	params.Add("from", start.Format("2006-01-02"))
	params.Add("to", end.Format("2006-01-02"))
	params.Add("fmt", "json")
	params.Add("period", "d")

	reqURL := fmt.Sprintf("%s/eod/%s.%s?%s", c.cfg.BaseURL, url.PathEscape(ticker), url.PathEscape(exchange), params.Encode())

	body, err := c.do(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var rows []eodBar
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", domain.ErrProviderRejected, err)
	}

	return toBars(rows)
}

// do executes one HTTP request through the circuit breaker and maps
// the outcome to an error kind. The token never appears in errors or
// logs.
func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrTransient, redactToken(err.Error(), c.cfg.Token))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrTransient, err)
			}
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: status 401", domain.ErrAuthFailed)
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: status 429", domain.ErrRateLimited)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d", domain.ErrTransient, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: status %d", domain.ErrProviderRejected, resp.StatusCode)
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", domain.ErrTransient)
		}
		return nil, err
	}
	return result.([]byte), nil
}

// redactToken scrubs the API token from provider error text.
func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "[redacted]")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
