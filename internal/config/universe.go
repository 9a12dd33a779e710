package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/marketscan/internal/domain"
)

// Universe is the ordered list of symbols to analyze. Order is
// preserved from the file and drives ranking tie-breaks.
type Universe struct {
	Symbols []domain.Symbol `yaml:"symbols"`

	index map[string]int
}

// LoadUniverse reads a YAML universe file, falling back to the built-in
// default when path is empty.
func LoadUniverse(path string) (*Universe, error) {
	if path == "" {
		return NewUniverse(DefaultUniverse()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}

	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}

	if len(u.Symbols) == 0 {
		return nil, fmt.Errorf("universe file %s contains no symbols", path)
	}

	seen := make(map[string]bool, len(u.Symbols))
	for i := range u.Symbols {
		s := &u.Symbols[i]
		if s.Ticker == "" {
			return nil, fmt.Errorf("universe entry %d has no ticker", i)
		}
		if seen[s.Ticker] {
			return nil, fmt.Errorf("duplicate ticker %s in universe", s.Ticker)
		}
		seen[s.Ticker] = true
		if s.Exchange == "" {
			s.Exchange = "US"
		}
		if s.Name == "" {
			s.Name = s.Ticker
		}
	}

	u.buildIndex()
	return &u, nil
}

// NewUniverse wraps a symbol list.
func NewUniverse(symbols []domain.Symbol) *Universe {
	u := &Universe{Symbols: symbols}
	u.buildIndex()
	return u
}

func (u *Universe) buildIndex() {
	u.index = make(map[string]int, len(u.Symbols))
	for i, s := range u.Symbols {
		u.index[s.Ticker] = i
	}
}

// Get returns the symbol descriptor for a ticker.
func (u *Universe) Get(ticker string) (domain.Symbol, bool) {
	i, ok := u.index[ticker]
	if !ok {
		return domain.Symbol{}, false
	}
	return u.Symbols[i], true
}

// Position returns the declared position of a ticker, used as the
// ranking tie-break. Unknown tickers sort last.
func (u *Universe) Position(ticker string) int {
	if i, ok := u.index[ticker]; ok {
		return i
	}
	return len(u.Symbols)
}

// Tickers returns all tickers in declared order.
func (u *Universe) Tickers() []string {
	out := make([]string, len(u.Symbols))
	for i, s := range u.Symbols {
		out[i] = s.Ticker
	}
	return out
}

// Len returns the universe size.
func (u *Universe) Len() int {
	return len(u.Symbols)
}

// DefaultUniverse is the built-in ETF universe: broad market, sectors,
// bonds, commodities, international, plus the volatility index used by
// the regime classifier.
func DefaultUniverse() []domain.Symbol {
	return []domain.Symbol{
		{Ticker: "SPY", Name: "SPDR S&P 500", Exchange: "US", Category: "Broad Market", Benchmark: "SPY"},
		{Ticker: "QQQ", Name: "Invesco Nasdaq 100", Exchange: "US", Category: "Broad Market", Benchmark: "SPY"},
		{Ticker: "IWM", Name: "iShares Russell 2000", Exchange: "US", Category: "Broad Market", Benchmark: "SPY"},
		{Ticker: "DIA", Name: "SPDR Dow Jones", Exchange: "US", Category: "Broad Market", Benchmark: "SPY"},
		{Ticker: "XLK", Name: "Technology Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "XLF", Name: "Financial Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "XLE", Name: "Energy Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "XLV", Name: "Health Care Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "XLI", Name: "Industrial Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "XLP", Name: "Consumer Staples Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "XLY", Name: "Consumer Discretionary Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "XLU", Name: "Utilities Select", Exchange: "US", Category: "Sector", Benchmark: "SPY"},
		{Ticker: "TLT", Name: "iShares 20+ Year Treasury", Exchange: "US", Category: "Bonds", Benchmark: "SPY"},
		{Ticker: "IEF", Name: "iShares 7-10 Year Treasury", Exchange: "US", Category: "Bonds", Benchmark: "TLT"},
		{Ticker: "LQD", Name: "iShares IG Corporate", Exchange: "US", Category: "Bonds", Benchmark: "TLT"},
		{Ticker: "HYG", Name: "iShares High Yield", Exchange: "US", Category: "Bonds", Benchmark: "TLT"},
		{Ticker: "GLD", Name: "SPDR Gold Shares", Exchange: "US", Category: "Commodities", Benchmark: "SPY"},
		{Ticker: "SLV", Name: "iShares Silver", Exchange: "US", Category: "Commodities", Benchmark: "GLD"},
		{Ticker: "USO", Name: "United States Oil", Exchange: "US", Category: "Commodities", Benchmark: "SPY"},
		{Ticker: "EFA", Name: "iShares MSCI EAFE", Exchange: "US", Category: "International", Benchmark: "SPY"},
		{Ticker: "EEM", Name: "iShares MSCI Emerging", Exchange: "US", Category: "International", Benchmark: "SPY"},
		{Ticker: "^VIX", Name: "CBOE Volatility Index", Exchange: "INDX", Category: "Volatility", Benchmark: "^VIX", Provider: "chart"},
	}
}
