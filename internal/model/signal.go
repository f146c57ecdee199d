package model

import "time"

// Signal is the discrete trading decision.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Request is the caller-facing input of the pipeline.
type Request struct {
	Symbol    string  `json:"symbol"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Threshold float64 `json:"threshold"`
}

// Result is the final output of the pipeline.
type Result struct {
	Symbol         string    `json:"symbol"`
	PredictedPrice float64   `json:"predicted_price"`
	Signal         Signal    `json:"signal"`
	Threshold      float64   `json:"threshold"`
	AsOf           time.Time `json:"as_of"`
	Rows           int       `json:"rows"`
	WindowSize     int       `json:"window_size"`
}

// BacktestPoint is one labelled window evaluated in batch mode.
type BacktestPoint struct {
	Time      time.Time `json:"time"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
	Signal    Signal    `json:"signal"`
}

// BacktestReport holds the batched predictions over every labelled window.
type BacktestReport struct {
	Symbol    string          `json:"symbol"`
	Threshold float64         `json:"threshold"`
	Points    []BacktestPoint `json:"points"`
	// HitRate is the share of windows whose predicted direction (vs. the last
	// close of the window) matched the actual next close.
	HitRate float64 `json:"hit_rate"`
}
