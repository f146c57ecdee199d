package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ForexSignal/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFinish(t *testing.T) {
	bars := []model.OHLCV{
		{Time: date("2023-01-04"), Close: 3},
		{Time: date("2023-01-01"), Close: 0},
		{Time: date("2023-01-02"), Close: 1},
		{Time: date("2023-01-03"), Close: 2},
		{Time: date("2023-01-03"), Close: 2.5},
		{Time: date("2023-01-06"), Close: 6},
	}

	s, err := finish("EURUSD=X", bars, date("2023-01-02"), date("2023-01-04"))
	require.NoError(t, err)
	assert.Equal(t, "EURUSD=X", s.Symbol)
	assert.Equal(t, []float64{1, 2.5, 3}, s.Closes())
	assert.NoError(t, s.Validate())

	_, err = finish("EURUSD=X", bars, date("2024-01-01"), date("2024-02-01"))
	assert.ErrorIs(t, err, model.ErrDataNotFound)
}

const yahooBody = `{"chart":{"result":[{"meta":{"gmtoffset":0},
"timestamp":[1672617600,1672704000,1672790400],
"indicators":{"quote":[{"open":[1.06,null,1.07],"high":[1.07,null,1.08],"low":[1.05,null,1.06],
"close":[1.066,null,1.075],"volume":[0,null,0]}]}}],"error":null}}`

func TestYahooFetcher(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/EURUSD=X":
			query = map[string]string{
				"period1":  r.URL.Query().Get("period1"),
				"period2":  r.URL.Query().Get("period2"),
				"interval": r.URL.Query().Get("interval"),
			}
			_, _ = w.Write([]byte(yahooBody))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		}
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second, nil)
	f.BaseURL = srv.URL

	s, err := f.Fetch(context.Background(), "EURUSD", date("2023-01-02"), date("2023-01-04"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.066, 1.075}, s.Closes())
	assert.Equal(t, date("2023-01-02"), s.Bars[0].Time)
	assert.Equal(t, date("2023-01-04"), s.Bars[1].Time)
	assert.Equal(t, "1672617600", query["period1"])
	assert.Equal(t, "1672876800", query["period2"])
	assert.Equal(t, "1d", query["interval"])

	_, err = f.Fetch(context.Background(), "NOPE", date("2023-01-02"), date("2023-01-04"))
	assert.ErrorIs(t, err, model.ErrDataNotFound)
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("symbol") != "EURUSD" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "2023-01-02", r.URL.Query().Get("from"))
		assert.Equal(t, "2023-01-03", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`[
			{"timestamp":1672704000,"open":1.07,"high":1.08,"low":1.06,"close":1.075},
			{"timestamp":1672617600,"open":1.06,"high":1.07,"low":1.05,"close":1.066}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL+"/", "secret", "", time.Second)
	s, err := f.Fetch(context.Background(), "EURUSD", date("2023-01-02"), date("2023-01-03"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.066, 1.075}, s.Closes())

	_, err = f.Fetch(context.Background(), "GBPUSD", date("2023-01-02"), date("2023-01-03"))
	assert.ErrorIs(t, err, model.ErrDataNotFound)

	f.APIKey = "wrong"
	_, err = f.Fetch(context.Background(), "EURUSD", date("2023-01-02"), date("2023-01-03"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrDataNotFound)
}

func TestCSVFetcher(t *testing.T) {
	dir := t.TempDir()
	content := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2023-01-03,1.07,1.08,1.06,1.075,1.075,0\n" +
		"2023-01-02,1.06,1.07,1.05,1.066,1.066,0\n" +
		"2023-01-04,null,null,null,null,null,null\n" +
		"2023-01-05,1.08,1.09,1.07,1.085,1.085,0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EURUSD=X.csv"), []byte(content), 0o644))

	f := &CSVFetcher{Dir: dir}
	s, err := f.Fetch(context.Background(), "EURUSD=X", date("2023-01-01"), date("2023-01-04"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.066, 1.075}, s.Closes())
	assert.Equal(t, 1.08, s.Bars[1].High)

	_, err = f.Fetch(context.Background(), "GBPUSD=X", date("2023-01-01"), date("2023-01-04"))
	assert.ErrorIs(t, err, model.ErrDataNotFound)

	_, err = readBars(strings.NewReader("Open,High\n1,2\n"))
	assert.Error(t, err)
}

type memoryCache struct {
	mu    sync.Mutex
	data  map[string]model.Series
	fail  bool
	hits  int
	stash int
}

func (m *memoryCache) Get(_ context.Context, key string) (model.Series, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return model.Series{}, false, errors.New("cache down")
	}
	s, ok := m.data[key]
	if ok {
		m.hits++
	}
	return s, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, s model.Series, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("cache down")
	}
	m.data[key] = s
	m.stash++
	return nil
}

func TestCachedFetcher(t *testing.T) {
	mock := &MockFetcher{Price: 1.1}
	cache := &memoryCache{data: map[string]model.Series{}}
	f := &CachedFetcher{Fetcher: mock, Cache: cache, TTL: time.Hour}

	assert.Equal(t, "mock+cache", f.Name())

	a, err := f.Fetch(context.Background(), "EURUSD=X", date("2023-01-01"), date("2023-01-10"))
	require.NoError(t, err)
	b, err := f.Fetch(context.Background(), "EURUSD=X", date("2023-01-01"), date("2023-01-10"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, mock.Calls())
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.stash)

	// a failing cache falls through to the fetcher
	cache.fail = true
	_, err = f.Fetch(context.Background(), "EURUSD=X", date("2023-01-01"), date("2023-01-10"))
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())

	// fetch errors are not cached
	cache.fail = false
	mock.Err = model.ErrDataNotFound
	_, err = f.Fetch(context.Background(), "GBPUSD=X", date("2023-01-01"), date("2023-01-10"))
	assert.ErrorIs(t, err, model.ErrDataNotFound)
	assert.Equal(t, 1, cache.stash)
}

func TestMockFetcher(t *testing.T) {
	m := &MockFetcher{Price: 1.2}
	s, err := m.Fetch(context.Background(), "EURUSD=X", date("2023-01-01"), date("2023-01-31"))
	require.NoError(t, err)
	assert.Equal(t, 31, s.Len())
	assert.NoError(t, s.Validate())
}
