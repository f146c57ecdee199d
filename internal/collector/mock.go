package collector

import (
	"context"
	"sync"
	"time"

	"ForexSignal/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// With Bars set it serves those (clipped to the range); otherwise it
// generates one bar per calendar day around Price.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times Fetch was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Fetch implements Fetcher.
func (m *MockFetcher) Fetch(_ context.Context, symbol string, start, end time.Time) (model.Series, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return model.Series{}, m.Err
	}
	bars := m.Bars
	if bars == nil {
		bars = generateMockBars(m.Price, start, end)
	}
	return finish(symbol, append([]model.OHLCV(nil), bars...), start, end)
}

func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 1
	}
	var bars []model.OHLCV
	count := int(day(end).Sub(day(start)).Hours()/24) + 1
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   day(start).AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
	}
	return bars
}
