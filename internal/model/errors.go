package model

import "errors"

// Kind is the caller-facing failure category.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindDataNotFound     Kind = "data_not_found"
	KindInsufficientData Kind = "insufficient_data"
	KindModelNotFound    Kind = "model_not_found"
	KindPrediction       Kind = "prediction_error"
	KindInternal         Kind = "internal"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDataNotFound     = errors.New("data not found")
	ErrInsufficientData = errors.New("insufficient data")
	ErrModelNotFound    = errors.New("model not found")
	ErrPrediction       = errors.New("prediction failed")
	ErrInternal         = errors.New("internal error")

	// ErrEmptyPrediction marks a predictor that answered without any output.
	// It is always wrapped together with ErrPrediction.
	ErrEmptyPrediction = errors.New("empty prediction")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrDataNotFound, KindDataNotFound},
	{ErrInsufficientData, KindInsufficientData},
	{ErrModelNotFound, KindModelNotFound},
	{ErrPrediction, KindPrediction},
	{ErrInternal, KindInternal},
}

// KindOf classifies err. Anything not carrying a known sentinel is internal.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Known reports whether err already carries one of the category sentinels.
func Known(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}
