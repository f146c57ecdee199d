package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"ForexSignal/internal/model"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Query is a validated Request.
type Query struct {
	Symbol    string
	Start     time.Time
	End       time.Time
	Threshold float64
}

// ParseRequest validates req. Every failure wraps model.ErrInvalidInput.
func ParseRequest(req model.Request, requirePositive bool) (Query, error) {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return Query{}, fmt.Errorf("%w: symbol is required", model.ErrInvalidInput)
	}
	start, err := ParseDate("start_date", req.StartDate)
	if err != nil {
		return Query{}, err
	}
	end, err := ParseDate("end_date", req.EndDate)
	if err != nil {
		return Query{}, err
	}
	if start.After(end) {
		return Query{}, fmt.Errorf("%w: start_date %s is after end_date %s", model.ErrInvalidInput, req.StartDate, req.EndDate)
	}
	if math.IsNaN(req.Threshold) || math.IsInf(req.Threshold, 0) {
		return Query{}, fmt.Errorf("%w: threshold must be a finite number", model.ErrInvalidInput)
	}
	if requirePositive && req.Threshold <= 0 {
		return Query{}, fmt.Errorf("%w: threshold must be positive, got %v", model.ErrInvalidInput, req.Threshold)
	}
	return Query{Symbol: symbol, Start: start, End: end, Threshold: req.Threshold}, nil
}

// ParseDate accepts exactly YYYY-MM-DD with a real calendar date.
func ParseDate(field, value string) (time.Time, error) {
	if !datePattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("%w: %s %q must be YYYY-MM-DD", model.ErrInvalidInput, field, value)
	}
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a calendar date", model.ErrInvalidInput, field, value)
	}
	return t, nil
}
