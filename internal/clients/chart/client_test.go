package chart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/marketscan/internal/domain"
)

func chartPayload(t *testing.T, ts []int64, open, high, low, closes []float64, vol []int64, adj []float64) []byte {
	t.Helper()
	quote := map[string]interface{}{
		"open": open, "high": high, "low": low, "close": closes, "volume": vol,
	}
	indicators := map[string]interface{}{
		"quote": []interface{}{quote},
	}
	if adj != nil {
		indicators["adjclose"] = []interface{}{map[string]interface{}{"adjclose": adj}}
	}
	body, err := json.Marshal(map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []interface{}{map[string]interface{}{
				"timestamp":  ts,
				"indicators": indicators,
			}},
			"error": nil,
		},
	})
	require.NoError(t, err)
	return body
}

func chartServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return New(Config{BaseURL: baseURL, Timeout: 5 * time.Second}, zerolog.Nop())
}

func wideWindow() (time.Time, time.Time) {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestFetchDailyParsesBars(t *testing.T) {
	// second row is all zeros, the null-row encoding
	ts := []int64{
		time.Date(2024, 1, 16, 21, 0, 0, 0, time.UTC).Unix(),
		time.Date(2024, 1, 17, 21, 0, 0, 0, time.UTC).Unix(),
		time.Date(2024, 1, 18, 21, 0, 0, 0, time.UTC).Unix(),
	}
	body := chartPayload(t, ts,
		[]float64{100, 0, 102},
		[]float64{101, 0, 103},
		[]float64{99, 0, 101},
		[]float64{100.5, 0, 102.5},
		[]int64{1000, 0, 3000},
		[]float64{100.5, 0, 0}, // zero adjclose falls back to close
	)
	srv := chartServer(t, body)

	start, end := wideWindow()
	bars, err := newTestClient(srv.URL).FetchDaily(context.Background(), "^VIX", "", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 100.5, bars[0].AdjClose)
	assert.Equal(t, int64(1000), bars[0].Volume)

	assert.Equal(t, time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC), bars[1].Date)
	assert.Equal(t, 102.5, bars[1].AdjClose)
}

func TestFetchDailyNormalizesToNYDate(t *testing.T) {
	// 02:00 UTC on the 17th is still the evening of the 16th in New York
	ts := []int64{time.Date(2024, 1, 17, 2, 0, 0, 0, time.UTC).Unix()}
	body := chartPayload(t, ts,
		[]float64{100}, []float64{101}, []float64{99}, []float64{100}, []int64{1000}, nil)
	srv := chartServer(t, body)

	start, end := wideWindow()
	bars, err := newTestClient(srv.URL).FetchDaily(context.Background(), "GLD", "", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), bars[0].Date)
}

func TestFetchDailyFiltersWindow(t *testing.T) {
	ts := []int64{
		time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC).Unix(),
		time.Date(2024, 1, 16, 21, 0, 0, 0, time.UTC).Unix(),
		time.Date(2024, 1, 17, 21, 0, 0, 0, time.UTC).Unix(),
	}
	body := chartPayload(t, ts,
		[]float64{100, 101, 102},
		[]float64{101, 102, 103},
		[]float64{99, 100, 101},
		[]float64{100, 101, 102},
		[]int64{1, 2, 3}, nil)
	srv := chartServer(t, body)

	start := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	bars, err := newTestClient(srv.URL).FetchDaily(context.Background(), "GLD", "", start, start)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 101.0, bars[0].Close)
}

func TestFetchDailyProviderError(t *testing.T) {
	srv := chartServer(t, []byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))

	start, end := wideWindow()
	_, err := newTestClient(srv.URL).FetchDaily(context.Background(), "NOPE", "", start, end)
	assert.ErrorIs(t, err, domain.ErrProviderRejected)
}

func TestFetchDailyEmptyResult(t *testing.T) {
	srv := chartServer(t, []byte(`{"chart":{"result":[],"error":null}}`))

	start, end := wideWindow()
	bars, err := newTestClient(srv.URL).FetchDaily(context.Background(), "GLD", "", start, end)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchDailyRejectionNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, MaxRetries: 2}, zerolog.Nop())
	start, end := wideWindow()
	_, err := c.FetchDaily(context.Background(), "NOPE", "", start, end)
	assert.ErrorIs(t, err, domain.ErrProviderRejected)
	assert.Equal(t, int32(1), calls.Load())
}
