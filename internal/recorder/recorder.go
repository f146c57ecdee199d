package recorder

import (
	"time"

	"ForexSignal/internal/model"
)

// Sources of a recorded run.
const (
	SourceAPI      = "api"
	SourceSchedule = "schedule"
	SourceTelegram = "telegram"
)

// SignalRecord is one successful signal computation.
type SignalRecord struct {
	ID             int64        `json:"id"`
	Timestamp      time.Time    `json:"timestamp"`
	RequestID      string       `json:"request_id"`
	Source         string       `json:"source"`
	Symbol         string       `json:"symbol"`
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date"`
	Threshold      float64      `json:"threshold"`
	PredictedPrice float64      `json:"predicted_price"`
	Signal         model.Signal `json:"signal"`
	AsOf           time.Time    `json:"as_of"`
}

// FailureRecord is one failed run with its error category.
type FailureRecord struct {
	Timestamp time.Time  `json:"timestamp"`
	RequestID string     `json:"request_id"`
	Source    string     `json:"source"`
	Symbol    string     `json:"symbol"`
	Kind      model.Kind `json:"kind"`
	Message   string     `json:"message"`
}

// Recorder persists signal history for later review.
type Recorder interface {
	RecordSignal(rec *SignalRecord) error
	RecordFailure(rec *FailureRecord) error
	// Recent returns up to limit signals, newest first.
	Recent(limit int) ([]SignalRecord, error)
	Close() error
}
