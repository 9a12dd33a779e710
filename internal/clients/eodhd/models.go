package eodhd

import (
	"fmt"
	"time"

	"github.com/aristath/marketscan/internal/domain"
)

// eodBar is one row of the provider's JSON array response.
type eodBar struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjusted_close"`
	Volume   int64   `json:"volume"`
}

// toBars converts the provider rows to domain bars, back-adjusting
// O/H/L by adjusted_close/close so the whole series is on the adjusted
// scale. When close is zero the factor defaults to 1.
func toBars(rows []eodBar) ([]domain.Bar, error) {
	bars := make([]domain.Bar, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, fmt.Errorf("bad bar date %q: %w", r.Date, err)
		}

		factor := 1.0
		if r.Close != 0 {
			factor = r.AdjClose / r.Close
		}

		bars = append(bars, domain.Bar{
			Date:     date,
			Open:     r.Open * factor,
			High:     r.High * factor,
			Low:      r.Low * factor,
			Close:    r.AdjClose,
			AdjClose: r.AdjClose,
			Volume:   r.Volume,
		})
	}
	return bars, nil
}
