package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"ForexSignal/internal/model"
)

// Fetcher retrieves the daily price series of a symbol between two dates,
// both inclusive. No data for the symbol or range yields an error wrapping
// model.ErrDataNotFound.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (model.Series, error)
	Name() string
}

// newHTTPClient builds the client shared by the HTTP fetchers, routed
// through proxyURL when set.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// finish sorts bars, drops duplicate timestamps (the later bar wins), clips
// them to [start, end] by calendar date and wraps them in a Series.
func finish(symbol string, bars []model.OHLCV, start, end time.Time) (model.Series, error) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	from := day(start)
	until := day(end).AddDate(0, 0, 1)
	kept := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(from) || !b.Time.Before(until) {
			continue
		}
		if n := len(kept); n > 0 && kept[n-1].Time.Equal(b.Time) {
			kept[n-1] = b
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		return model.Series{}, fmt.Errorf("%w: %s between %s and %s", model.ErrDataNotFound,
			symbol, start.Format(model.DateLayout), end.Format(model.DateLayout))
	}
	return model.Series{Symbol: symbol, Bars: kept}, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
