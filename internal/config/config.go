package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ForexSignal/internal/calculator"
	"ForexSignal/internal/pipeline"
)

// DefaultOrigin is the web front end allowed by CORS when none is configured.
const DefaultOrigin = "http://localhost:3000"

// WatchItem is one scheduled symbol with its decision threshold.
type WatchItem struct {
	Symbol    string  `yaml:"symbol"`
	Threshold float64 `yaml:"threshold"`
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RateLimit      float64  `yaml:"rate_limit"`
		RateBurst      int      `yaml:"rate_burst"`
	} `yaml:"server"`
	DataSource struct {
		Provider  string            `yaml:"provider"`
		BaseURL   string            `yaml:"base_url"`
		APIKey    string            `yaml:"api_key"`
		CSVDir    string            `yaml:"csv_dir"`
		Timeout   time.Duration     `yaml:"timeout"`
		SymbolMap map[string]string `yaml:"symbol_map"`
	} `yaml:"data_source"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Model struct {
		Dir              string        `yaml:"dir"`
		RemoteURL        string        `yaml:"remote_url"`
		OutputNormalized *bool         `yaml:"output_normalized"`
		PredictTimeout   time.Duration `yaml:"predict_timeout"`
	} `yaml:"model"`
	Pipeline struct {
		Window                   int      `yaml:"window"`
		SMAPeriod                int      `yaml:"sma_period"`
		RSIPeriod                int      `yaml:"rsi_period"`
		EMAPeriod                int      `yaml:"ema_period"`
		MACDFast                 int      `yaml:"macd_fast"`
		MACDSlow                 int      `yaml:"macd_slow"`
		BBPeriod                 int      `yaml:"bb_period"`
		BBK                      float64  `yaml:"bb_k"`
		Indicators               []string `yaml:"indicators"`
		MissingPolicy            string   `yaml:"missing_policy"`
		RequirePositiveThreshold *bool    `yaml:"require_positive_threshold"`
	} `yaml:"pipeline"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron    string      `yaml:"daily_cron"`
		BacktestCron string      `yaml:"backtest_cron"`
		LookbackDays int         `yaml:"lookback_days"`
		Watchlist    []WatchItem `yaml:"watchlist"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SERVER_ADDR":        &c.Server.Addr,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"DATA_BASE_URL":      &c.DataSource.BaseURL,
		"DATA_API_KEY":       &c.DataSource.APIKey,
		"CSV_DIR":            &c.DataSource.CSVDir,
		"REDIS_ADDR":         &c.Cache.RedisAddr,
		"REDIS_PASSWORD":     &c.Cache.RedisPassword,
		"MODEL_DIR":          &c.Model.Dir,
		"MODEL_REMOTE_URL":   &c.Model.RemoteURL,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"LOG_LEVEL":          &c.Log.Level,
		"HTTPS_PROXY":        &c.Proxy,
		"CRON_DAILY":         &c.Schedule.DailyCron,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("WINDOW_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WINDOW_SIZE: %w", err)
		}
		c.Pipeline.Window = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := pipeline.DefaultOptions()
	ind := def.Indicators

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{DefaultOrigin}
	}
	if c.Server.RateBurst == 0 && c.Server.RateLimit > 0 {
		c.Server.RateBurst = int(c.Server.RateLimit) + 1
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 15 * time.Second
	}
	if c.DataSource.CSVDir == "" {
		c.DataSource.CSVDir = "data/csv"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Model.Dir == "" {
		c.Model.Dir = "models"
	}
	if c.Model.OutputNormalized == nil {
		c.Model.OutputNormalized = &def.OutputNormalized
	}
	if c.Model.PredictTimeout == 0 {
		c.Model.PredictTimeout = def.PredictTimeout
	}

	p := &c.Pipeline
	if p.Window == 0 {
		p.Window = def.Window
	}
	for _, f := range []struct {
		dst *int
		def int
	}{
		{&p.SMAPeriod, ind.SMAPeriod},
		{&p.RSIPeriod, ind.RSIPeriod},
		{&p.EMAPeriod, ind.EMAPeriod},
		{&p.MACDFast, ind.MACDFast},
		{&p.MACDSlow, ind.MACDSlow},
		{&p.BBPeriod, ind.BBPeriod},
	} {
		if *f.dst == 0 {
			*f.dst = f.def
		}
	}
	if p.BBK == 0 {
		p.BBK = ind.BBK
	}
	if len(p.Indicators) == 0 {
		p.Indicators = append([]string(nil), ind.Indicators...)
	}
	if p.MissingPolicy == "" {
		p.MissingPolicy = string(ind.Policy)
	}
	if p.RequirePositiveThreshold == nil {
		p.RequirePositiveThreshold = &def.RequirePositiveThreshold
	}

	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.LookbackDays == 0 {
		c.Schedule.LookbackDays = 180
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/forex_signal.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// PipelineOptions converts the pipeline and model sections.
func (c *Config) PipelineOptions() pipeline.Options {
	p := c.Pipeline
	return pipeline.Options{
		Window: p.Window,
		Indicators: calculator.Config{
			SMAPeriod:  p.SMAPeriod,
			RSIPeriod:  p.RSIPeriod,
			EMAPeriod:  p.EMAPeriod,
			MACDFast:   p.MACDFast,
			MACDSlow:   p.MACDSlow,
			BBPeriod:   p.BBPeriod,
			BBK:        p.BBK,
			Indicators: append([]string(nil), p.Indicators...),
			Policy:     calculator.Policy(p.MissingPolicy),
		},
		OutputNormalized:         *c.Model.OutputNormalized,
		RequirePositiveThreshold: *p.RequirePositiveThreshold,
		PredictTimeout:           c.Model.PredictTimeout,
	}
}

// TelegramEnabled reports whether both bot credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider rest")
		}
	case "csv":
		if c.DataSource.CSVDir == "" {
			return fmt.Errorf("data_source.csv_dir is required for provider csv")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Schedule.LookbackDays < 0 {
		return fmt.Errorf("schedule.lookback_days must not be negative")
	}
	for i, w := range c.Schedule.Watchlist {
		if strings.TrimSpace(w.Symbol) == "" {
			return fmt.Errorf("schedule.watchlist[%d].symbol is required", i)
		}
		if math.IsNaN(w.Threshold) || math.IsInf(w.Threshold, 0) {
			return fmt.Errorf("schedule.watchlist[%d].threshold must be finite", i)
		}
		if requirePositive := c.Pipeline.RequirePositiveThreshold; (requirePositive == nil || *requirePositive) && w.Threshold <= 0 {
			return fmt.Errorf("schedule.watchlist[%d].threshold must be positive, got %v", i, w.Threshold)
		}
	}
	if err := c.PipelineOptions().Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}
