package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instrumentation for the analysis pipeline.
type Metrics struct {
	FetchTotal      *prometheus.CounterVec
	FetchRetries    prometheus.Counter
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	SymbolsAnalyzed prometheus.Gauge
	FailedSymbols   prometheus.Gauge
}

// New registers the pipeline metrics on a registry. Pass a fresh
// registry in tests to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketscan_fetch_total",
			Help: "Symbol fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		FetchRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "marketscan_fetch_retries_total",
			Help: "Fetch attempts that were retried.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketscan_runs_total",
			Help: "Analysis runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketscan_run_duration_seconds",
			Help:    "Wall-clock duration of a full analysis run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		SymbolsAnalyzed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "marketscan_symbols_analyzed",
			Help: "Symbols that produced instrument records in the last run.",
		}),
		FailedSymbols: factory.NewGauge(prometheus.GaugeOpts{
			Name: "marketscan_failed_symbols",
			Help: "Symbols that failed in the last run.",
		}),
	}
}
