package model

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the only accepted request date format.
const DateLayout = "2006-01-02"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume,omitempty"`
}

// Series holds the raw price history of one instrument, oldest bar first.
type Series struct {
	Symbol string  `json:"symbol"`
	Bars   []OHLCV `json:"bars"`
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Closes extracts the close prices in bar order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Times extracts the bar timestamps in order.
func (s Series) Times() []time.Time {
	times := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		times[i] = b.Time
	}
	return times
}

// Last returns the most recent bar. The series must not be empty.
func (s Series) Last() OHLCV {
	return s.Bars[len(s.Bars)-1]
}

// Validate checks that the series is non-empty, strictly increasing by time
// and carries finite close prices.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("series %q is empty", s.Symbol)
	}
	for i, b := range s.Bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			return fmt.Errorf("series %q: non-finite close at %s", s.Symbol, b.Time.Format(DateLayout))
		}
		if i == 0 {
			continue
		}
		prev := s.Bars[i-1].Time
		switch {
		case b.Time.Equal(prev):
			return fmt.Errorf("series %q: duplicate timestamp %s", s.Symbol, b.Time.Format(DateLayout))
		case b.Time.Before(prev):
			return fmt.Errorf("series %q: bars out of order at %s", s.Symbol, b.Time.Format(DateLayout))
		}
	}
	return nil
}
