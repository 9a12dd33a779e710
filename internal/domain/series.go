package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Base column names shared by every series.
const (
	ColOpen     = "Open"
	ColHigh     = "High"
	ColLow      = "Low"
	ColClose    = "Close"
	ColAdjClose = "AdjClose"
	ColVolume   = "Volume"
)

// Series is a date-indexed table of float columns for one symbol.
// Derived indicator columns are appended by name, so the schema stays
// open without struct changes. All columns share the row count of
// Dates; missing values are NaN.
type Series struct {
	Ticker string
	Dates  []time.Time

	columns map[string][]float64
	order   []string
}

// NewSeries builds a series from raw bars. Volume is stored as a float
// column so it participates in NaN-aware arithmetic.
func NewSeries(ticker string, bars []Bar) *Series {
	n := len(bars)
	s := &Series{
		Ticker:  ticker,
		Dates:   make([]time.Time, n),
		columns: make(map[string][]float64),
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	adj := make([]float64, n)
	volume := make([]float64, n)

	for i, b := range bars {
		s.Dates[i] = b.Date
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		adj[i] = b.AdjClose
		volume[i] = float64(b.Volume)
	}

	s.Set(ColOpen, open)
	s.Set(ColHigh, high)
	s.Set(ColLow, low)
	s.Set(ColClose, closes)
	s.Set(ColAdjClose, adj)
	s.Set(ColVolume, volume)
	return s
}

// Len returns the row count.
func (s *Series) Len() int {
	return len(s.Dates)
}

// Set stores a column, replacing any existing column of the same name.
// Panics on a length mismatch, same contract as gonum's stat helpers.
func (s *Series) Set(name string, values []float64) {
	if len(values) != len(s.Dates) {
		panic(fmt.Sprintf("series: column %s length %d, want %d", name, len(values), len(s.Dates)))
	}
	if _, exists := s.columns[name]; !exists {
		s.order = append(s.order, name)
	}
	s.columns[name] = values
}

// Column returns the named column, or nil when absent. The returned
// slice is not copied; callers must not mutate it.
func (s *Series) Column(name string) []float64 {
	return s.columns[name]
}

// Has reports whether the named column exists.
func (s *Series) Has(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// ColumnNames returns column names in insertion order.
func (s *Series) ColumnNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// At returns the value of a column at row i, or NaN when the column is
// absent or i is out of range.
func (s *Series) At(name string, i int) float64 {
	col, ok := s.columns[name]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// Last returns the final value of a column, or NaN when unavailable.
func (s *Series) Last(name string) float64 {
	return s.At(name, s.Len()-1)
}

// Prev returns the second-to-last value of a column, or NaN.
func (s *Series) Prev(name string) float64 {
	return s.At(name, s.Len()-2)
}

// LastDate returns the date of the final row and false for an empty
// series.
func (s *Series) LastDate() (time.Time, bool) {
	if len(s.Dates) == 0 {
		return time.Time{}, false
	}
	return s.Dates[len(s.Dates)-1], true
}

// Truncate returns a copy containing only the first n rows. Used by
// look-ahead tests; the original is untouched.
func (s *Series) Truncate(n int) *Series {
	if n > s.Len() {
		n = s.Len()
	}
	out := &Series{
		Ticker:  s.Ticker,
		Dates:   append([]time.Time(nil), s.Dates[:n]...),
		columns: make(map[string][]float64, len(s.columns)),
		order:   append([]string(nil), s.order...),
	}
	for name, col := range s.columns {
		out.columns[name] = append([]float64(nil), col[:n]...)
	}
	return out
}

// seriesJSON is the wire form of a series: dates plus one array per
// column, with NaN rendered as null.
type seriesJSON struct {
	Dates   []string           `json:"dates"`
	Columns map[string][]Float `json:"columns"`
}

// MarshalJSON implements json.Marshaler for the optional
// processed_data export.
func (s *Series) MarshalJSON() ([]byte, error) {
	out := seriesJSON{
		Dates:   make([]string, len(s.Dates)),
		Columns: make(map[string][]Float, len(s.columns)),
	}
	for i, d := range s.Dates {
		out.Dates[i] = d.Format("2006-01-02")
	}
	for name, col := range s.columns {
		vals := make([]Float, len(col))
		for i, v := range col {
			vals[i] = Float(v)
		}
		out.Columns[name] = vals
	}
	return json.Marshal(out)
}
