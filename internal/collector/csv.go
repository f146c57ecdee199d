package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ForexSignal/internal/model"
)

// CSVFetcher reads <Dir>/<symbol>.csv files in the Yahoo download layout:
// a header row naming Date, Open, High, Low, Close and optionally Volume,
// in any order. Rows with a null or empty close are skipped.
type CSVFetcher struct {
	Dir string
}

func (f *CSVFetcher) Name() string { return "csv" }

// Fetch implements Fetcher.
func (f *CSVFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}
	path := filepath.Join(f.Dir, csvFileName(symbol))
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Series{}, fmt.Errorf("%w: no file for %s at %s", model.ErrDataNotFound, symbol, path)
	}
	if err != nil {
		return model.Series{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	bars, err := readBars(file)
	if err != nil {
		return model.Series{}, fmt.Errorf("read %s: %w", path, err)
	}
	return finish(symbol, bars, start, end)
}

func csvFileName(symbol string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, symbol)
	return clean + ".csv"
}

func readBars(r io.Reader) ([]model.OHLCV, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"date", "close"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing %q column", col)
		}
	}

	var bars []model.OHLCV
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		closeStr := field("close")
		if closeStr == "" || strings.EqualFold(closeStr, "null") {
			continue
		}
		t, err := time.Parse(model.DateLayout, field("date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", line, err)
		}
		c, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close: %w", line, err)
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   optional(field("open"), c),
			High:   optional(field("high"), c),
			Low:    optional(field("low"), c),
			Close:  c,
			Volume: optional(field("volume"), 0),
		})
	}
	return bars, nil
}

func optional(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
