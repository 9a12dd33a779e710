package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Weights are the composite blend weights. They must sum to 1.0.
type Weights struct {
	Trend            float64
	Momentum         float64
	Volatility       float64
	RelativeStrength float64
}

// SignalThresholds tune the discrete signal generator.
type SignalThresholds struct {
	RSIOverbought        float64
	RSIOversold          float64
	RSIExtremeOverbought float64
	RSIExtremeOversold   float64
	BBBreakoutFactor     float64
	VolumeSurgeRatio     float64
	GapThreshold         float64
	ADXStrongTrend       float64
}

// Analysis holds the indicator and scoring parameters.
type Analysis struct {
	DataLookbackDays     int
	MinRequiredRows      int
	SMAPeriods           []int
	ROCPeriods           []int
	HVolPeriods          []int
	ZScorePeriods        []int
	RSIPeriod            int
	MACDFast             int
	MACDSlow             int
	MACDSignal           int
	ADXPeriod            int
	ATRPeriod            int
	BBPeriod             int
	BBStd                float64
	VIXLow               float64
	VIXMedium            float64
	PercentileWindow     int
	PercentileMinPeriods int
	Weights              Weights
	Thresholds           SignalThresholds
	VIXTicker            string
	SPYTicker            string
}

// Fetch holds the acquisition layer parameters. Delays are in seconds
// to match how operators think about provider politeness.
type Fetch struct {
	RequestDelayMin float64
	RequestDelayMax float64
	BatchSize       int
	BatchDelayMin   float64
	BatchDelayMax   float64
	Timeout         time.Duration
	MaxRetries      int
	RateLimitWait   time.Duration
}

// Config holds application configuration
type Config struct {
	Port         int
	LogLevel     string
	LogPretty    bool
	DevMode      bool
	Version      string
	DatabasePath string
	BarCachePath string
	OutputDir    string
	UniverseFile string

	EODHDBaseURL string
	EODHDToken   string
	ChartBaseURL string

	TelegramBotToken string
	TelegramChatID   string
	SendTelegram     bool

	SaveReports          bool
	IncludeProcessedData bool
	AnalysisSchedule     string

	Analysis Analysis
	Fetch    Fetch
}

// Version reported in run metadata.
const appVersion = "1.0.0"

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8090),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", false),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		Version:      appVersion,
		DatabasePath: getEnv("DB_PATH", "./data/marketscan.db"),
		BarCachePath: getEnv("BAR_CACHE_PATH", "./data/history"),
		OutputDir:    getEnv("OUTPUT_DIR", "./data/reports"),
		UniverseFile: getEnv("UNIVERSE_FILE", ""),

		EODHDBaseURL: getEnv("EODHD_BASE_URL", "https://eodhd.com/api"),
		EODHDToken:   getEnv("EODHD_API_TOKEN", ""),
		ChartBaseURL: getEnv("CHART_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		SendTelegram:     getEnvAsBool("SEND_TELEGRAM", true),

		SaveReports:          getEnvAsBool("SAVE_REPORTS", true),
		IncludeProcessedData: getEnvAsBool("INCLUDE_PROCESSED_DATA", false),
		// 22:30 New York, after the session close buffer
		AnalysisSchedule: getEnv("ANALYSIS_SCHEDULE", "CRON_TZ=America/New_York 0 30 22 * * MON-FRI"),

		Analysis: Analysis{
			DataLookbackDays:     getEnvAsInt("DATA_LOOKBACK_DAYS", 400),
			MinRequiredRows:      getEnvAsInt("MIN_REQUIRED_ROWS", 50),
			SMAPeriods:           getEnvAsInts("SMA_PERIODS", []int{20, 50, 125, 200}),
			ROCPeriods:           getEnvAsInts("ROC_PERIODS", []int{10, 20, 60}),
			HVolPeriods:          getEnvAsInts("HVOL_PERIODS", []int{20, 60}),
			ZScorePeriods:        getEnvAsInts("ZSCORE_PERIODS", []int{20, 50, 125}),
			RSIPeriod:            getEnvAsInt("RSI_PERIOD", 14),
			MACDFast:             getEnvAsInt("MACD_FAST", 12),
			MACDSlow:             getEnvAsInt("MACD_SLOW", 26),
			MACDSignal:           getEnvAsInt("MACD_SIGNAL", 9),
			ADXPeriod:            getEnvAsInt("ADX_PERIOD", 14),
			ATRPeriod:            getEnvAsInt("ATR_PERIOD", 14),
			BBPeriod:             getEnvAsInt("BB_PERIOD", 20),
			BBStd:                getEnvAsFloat("BB_STD", 2.0),
			VIXLow:               getEnvAsFloat("VIX_LOW", 15),
			VIXMedium:            getEnvAsFloat("VIX_MEDIUM", 25),
			PercentileWindow:     getEnvAsInt("PERCENTILE_WINDOW", 252),
			PercentileMinPeriods: getEnvAsInt("PERCENTILE_MIN_PERIODS", 50),
			Weights: Weights{
				Trend:            getEnvAsFloat("WEIGHT_TREND", 0.30),
				Momentum:         getEnvAsFloat("WEIGHT_MOMENTUM", 0.30),
				Volatility:       getEnvAsFloat("WEIGHT_VOLATILITY", 0.15),
				RelativeStrength: getEnvAsFloat("WEIGHT_REL_STRENGTH", 0.25),
			},
			Thresholds: SignalThresholds{
				RSIOverbought:        getEnvAsFloat("RSI_OVERBOUGHT", 70),
				RSIOversold:          getEnvAsFloat("RSI_OVERSOLD", 30),
				RSIExtremeOverbought: getEnvAsFloat("RSI_EXTREME_OVERBOUGHT", 80),
				RSIExtremeOversold:   getEnvAsFloat("RSI_EXTREME_OVERSOLD", 20),
				BBBreakoutFactor:     getEnvAsFloat("BB_BREAKOUT_FACTOR", 0.995),
				VolumeSurgeRatio:     getEnvAsFloat("VOLUME_SURGE_RATIO", 2.0),
				GapThreshold:         getEnvAsFloat("GAP_THRESHOLD", 0.02),
				ADXStrongTrend:       getEnvAsFloat("ADX_STRONG_TREND", 25),
			},
			VIXTicker: getEnv("VIX_TICKER", "^VIX"),
			SPYTicker: getEnv("SPY_TICKER", "SPY"),
		},

		Fetch: Fetch{
			RequestDelayMin: getEnvAsFloat("REQUEST_DELAY_MIN", 1.0),
			RequestDelayMax: getEnvAsFloat("REQUEST_DELAY_MAX", 2.0),
			BatchSize:       getEnvAsInt("BATCH_SIZE", 5),
			BatchDelayMin:   getEnvAsFloat("BATCH_DELAY_MIN", 3.0),
			BatchDelayMax:   getEnvAsFloat("BATCH_DELAY_MAX", 5.0),
			Timeout:         time.Duration(getEnvAsInt("TIMEOUT", 30)) * time.Second,
			MaxRetries:      getEnvAsInt("MAX_RETRIES", 3),
			RateLimitWait:   time.Duration(getEnvAsInt("RATE_LIMIT_WAIT", 60)) * time.Second,
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DB_PATH is required")
	}

	w := c.Analysis.Weights
	sum := w.Trend + w.Momentum + w.Volatility + w.RelativeStrength
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("score weights must sum to 1.0, got %.3f", sum)
	}

	if c.Analysis.MinRequiredRows <= 0 {
		return fmt.Errorf("MIN_REQUIRED_ROWS must be positive")
	}

	for _, p := range c.Analysis.SMAPeriods {
		if p <= 0 {
			return fmt.Errorf("SMA_PERIODS must be positive, got %d", p)
		}
	}

	if c.Fetch.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1")
	}

	if c.Fetch.RequestDelayMin > c.Fetch.RequestDelayMax {
		return fmt.Errorf("REQUEST_DELAY_MIN exceeds REQUEST_DELAY_MAX")
	}

	if c.Fetch.BatchDelayMin > c.Fetch.BatchDelayMax {
		return fmt.Errorf("BATCH_DELAY_MIN exceeds BATCH_DELAY_MAX")
	}

	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}

	return nil
}

// TelegramConfigured reports whether both messaging secrets are set.
// A missing pair disables the notifier instead of failing the run.
func (c *Config) TelegramConfigured() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsInts parses a comma-separated list, e.g. "20,50,125,200".
func getEnvAsInts(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
