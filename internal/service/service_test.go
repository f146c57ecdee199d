package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ForexSignal/internal/model"
	"ForexSignal/internal/recorder"
)

type stubEngine struct {
	result *model.Result
	report *model.BacktestReport
	err    error
}

func (s *stubEngine) Run(context.Context, model.Request) (*model.Result, error) {
	return s.result, s.err
}

func (s *stubEngine) Backtest(context.Context, model.Request) (*model.BacktestReport, error) {
	return s.report, s.err
}

type memoryRecorder struct {
	mu       sync.Mutex
	signals  []recorder.SignalRecord
	failures []recorder.FailureRecord
}

func (m *memoryRecorder) RecordSignal(rec *recorder.SignalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, *rec)
	return nil
}

func (m *memoryRecorder) RecordFailure(rec *recorder.FailureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, *rec)
	return nil
}

func (m *memoryRecorder) Recent(limit int) ([]recorder.SignalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recorder.SignalRecord, 0, limit)
	for i := len(m.signals) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.signals[i])
	}
	return out, nil
}

func (m *memoryRecorder) Close() error { return nil }

var req = model.Request{Symbol: "EURUSD=X", StartDate: "2023-01-01", EndDate: "2023-12-31", Threshold: 1.08}

func TestGenerate_RecordsSignal(t *testing.T) {
	asOf := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	engine := &stubEngine{result: &model.Result{
		Symbol: "EURUSD=X", PredictedPrice: 1.1, Signal: model.SignalBuy, Threshold: 1.08, AsOf: asOf,
	}}
	rec := &memoryRecorder{}
	svc := New(engine, rec)

	ctx := WithRequestID(context.Background(), "req-1")
	res, err := svc.Generate(ctx, req, recorder.SourceAPI)
	require.NoError(t, err)
	assert.Equal(t, model.SignalBuy, res.Signal)

	require.Len(t, rec.signals, 1)
	got := rec.signals[0]
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, recorder.SourceAPI, got.Source)
	assert.Equal(t, "2023-01-01", got.StartDate)
	assert.Equal(t, 1.1, got.PredictedPrice)
	assert.Equal(t, asOf, got.AsOf)
	assert.Empty(t, rec.failures)
}

func TestGenerate_RecordsFailure(t *testing.T) {
	cause := fmt.Errorf("%w: no artifact", model.ErrModelNotFound)
	rec := &memoryRecorder{}
	svc := New(&stubEngine{err: cause}, rec)

	_, err := svc.Generate(context.Background(), req, recorder.SourceTelegram)
	assert.ErrorIs(t, err, model.ErrModelNotFound)

	require.Len(t, rec.failures, 1)
	assert.Equal(t, model.KindModelNotFound, rec.failures[0].Kind)
	assert.Equal(t, recorder.SourceTelegram, rec.failures[0].Source)
	assert.NotEmpty(t, rec.failures[0].RequestID)
	assert.Empty(t, rec.signals)
}

func TestBacktest(t *testing.T) {
	rep := &model.BacktestReport{Symbol: "EURUSD=X", HitRate: 0.6}
	rec := &memoryRecorder{}
	svc := New(&stubEngine{report: rep}, rec)

	got, err := svc.Backtest(context.Background(), req, recorder.SourceAPI)
	require.NoError(t, err)
	assert.Same(t, rep, got)

	svc.Engine = &stubEngine{err: errors.New("disk full")}
	_, err = svc.Backtest(context.Background(), req, recorder.SourceAPI)
	assert.Error(t, err)
	require.Len(t, rec.failures, 1)
	assert.Equal(t, model.KindInternal, rec.failures[0].Kind)
}

func TestHistory(t *testing.T) {
	rec := &memoryRecorder{}
	for _, s := range []string{"A", "B", "C"} {
		rec.signals = append(rec.signals, recorder.SignalRecord{Symbol: s})
	}
	svc := New(&stubEngine{}, rec)

	got, err := svc.History(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Symbol)

	got, err = svc.History(0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
	a, b := RequestID(context.Background()), RequestID(context.Background())
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestNew_NilRecorder(t *testing.T) {
	svc := New(&stubEngine{}, nil)
	got, err := svc.History(10)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
