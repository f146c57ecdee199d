package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ForexSignal/internal/calculator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 15*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 180, cfg.Schedule.LookbackDays)
	assert.False(t, cfg.TelegramEnabled())

	opts := cfg.PipelineOptions()
	assert.Equal(t, 60, opts.Window)
	assert.Equal(t, calculator.DefaultConfig(), opts.Indicators)
	assert.True(t, opts.OutputNormalized)
	assert.True(t, opts.RequirePositiveThreshold)
	assert.Equal(t, 10*time.Second, opts.PredictTimeout)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: CSV
  csv_dir: /srv/bars
cache:
  ttl: 30m
model:
  output_normalized: false
  predict_timeout: 2s
pipeline:
  window: 40
  missing_policy: warmup
  require_positive_threshold: false
schedule:
  lookback_days: 90
  watchlist:
    - symbol: EURUSD
      threshold: 1.085
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "csv", cfg.DataSource.Provider)
	assert.Equal(t, "/srv/bars", cfg.DataSource.CSVDir)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []WatchItem{{Symbol: "EURUSD", Threshold: 1.085}}, cfg.Schedule.Watchlist)

	opts := cfg.PipelineOptions()
	assert.Equal(t, 40, opts.Window)
	assert.Equal(t, calculator.PolicyWarmup, opts.Indicators.Policy)
	assert.False(t, opts.OutputNormalized)
	assert.False(t, opts.RequirePositiveThreshold)
	assert.Equal(t, 2*time.Second, opts.PredictTimeout)
	// unset periods keep their defaults
	assert.Equal(t, 26, opts.Indicators.MACDSlow)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\npipeline:\n  window: 30\n")
	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("WINDOW_SIZE", "45")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 45, cfg.Pipeline.Window)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.TelegramEnabled())

	t.Setenv("WINDOW_SIZE", "wide")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {

	type test struct {
		body string
		ok   bool
	}

	tests := map[string]test{
		"yahoo":             {body: "data_source:\n  provider: yahoo\n", ok: true},
		"rest-with-url":     {body: "data_source:\n  provider: rest\n  base_url: http://bars\n", ok: true},
		"rest-without-url":  {body: "data_source:\n  provider: rest\n"},
		"unknown-provider":  {body: "data_source:\n  provider: bloomberg\n"},
		"half-telegram":     {body: "telegram:\n  bot_token: abc\n"},
		"negative-rate":     {body: "server:\n  rate_limit: -1\n"},
		"bad-policy":        {body: "pipeline:\n  missing_policy: bfill\n"},
		"bad-macd":          {body: "pipeline:\n  macd_fast: 40\n"},
		"blank-watch-item":  {body: "schedule:\n  watchlist:\n    - threshold: 1.1\n"},
		"negative-window":   {body: "pipeline:\n  window: -5\n"},
		"negative-lookback": {body: "schedule:\n  lookback_days: -1\n"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Schedule.Watchlist, 2)
	assert.Equal(t, "JPY=X", cfg.DataSource.SymbolMap["USDJPY"])
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "configs/config.yaml", Path())
	t.Setenv("CONFIG_PATH", "/etc/forexsignal.yaml")
	assert.Equal(t, "/etc/forexsignal.yaml", Path())
}

func TestValidate_WatchlistThreshold(t *testing.T) {

	type test struct {
		threshold       string
		requirePositive string
		ok              bool
	}

	tests := map[string]test{
		"positive":              {threshold: "1.085", requirePositive: "true", ok: true},
		"zero":                  {threshold: "0", requirePositive: "true"},
		"negative":              {threshold: "-1.2", requirePositive: "true"},
		"nan":                   {threshold: ".nan", requirePositive: "false"},
		"zero-when-allowed":     {threshold: "0", requirePositive: "false", ok: true},
		"negative-when-allowed": {threshold: "-0.5", requirePositive: "false", ok: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			body := "pipeline:\n  require_positive_threshold: " + tt.requirePositive + "\n" +
				"schedule:\n  watchlist:\n    - symbol: EURUSD\n      threshold: " + tt.threshold + "\n"
			cfg, err := Load(writeConfig(t, body))
			require.NoError(t, err)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
