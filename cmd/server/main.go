package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ForexSignal/internal/collector"
	"ForexSignal/internal/config"
	"ForexSignal/internal/logger"
	"ForexSignal/internal/notifier"
	"ForexSignal/internal/pipeline"
	"ForexSignal/internal/predictor"
	"ForexSignal/internal/recorder"
	"ForexSignal/internal/scheduler"
	"ForexSignal/internal/server"
	"ForexSignal/internal/service"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init("forexsignal", cfg.Log.Level, cfg.Log.Pretty)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("ForexSignal starting...")

	// Init fetcher
	fetcher, closeCache := buildFetcher(cfg)
	defer closeCache()
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init model store
	var store predictor.Store
	if cfg.Model.RemoteURL != "" {
		store = &predictor.RemoteStore{
			BaseURL: cfg.Model.RemoteURL,
			Client:  &http.Client{Timeout: cfg.Model.PredictTimeout},
		}
		log.Info().Str("url", cfg.Model.RemoteURL).Msg("using remote model server")
	} else {
		store = predictor.NewFileStore(cfg.Model.Dir)
		log.Info().Str("dir", cfg.Model.Dir).Msg("using model artifacts")
	}

	pipe, err := pipeline.New(fetcher, store, cfg.PipelineOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("init pipeline")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	svc := service.New(pipe, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init notifier
	var n notifier.Notifier = notifier.LogNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.Warn().Err(err).Msg("init telegram notifier failed, logging notifications instead")
		} else {
			n = tn
		}
	}

	// Init scheduler
	watchlist := make([]scheduler.WatchItem, len(cfg.Schedule.Watchlist))
	for i, w := range cfg.Schedule.Watchlist {
		watchlist[i] = scheduler.WatchItem{Symbol: w.Symbol, Threshold: w.Threshold}
	}
	sched := scheduler.NewScheduler(ctx, svc, n, watchlist, cfg.Schedule.LookbackDays)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.BacktestCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing watchlist now")
		go sched.RunDailyNow()
	}

	srv := server.New(svc, server.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info().Msg("ForexSignal is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("ForexSignal stopped")
}

// buildFetcher picks the configured data provider and wraps it with the
// Redis cache when one is configured. The returned func releases the cache.
func buildFetcher(cfg *config.Config) (collector.Fetcher, func()) {
	ds := cfg.DataSource
	var fetcher collector.Fetcher
	switch ds.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout)
	case "csv":
		fetcher = &collector.CSVFetcher{Dir: ds.CSVDir}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, ds.Timeout, ds.SymbolMap)
	}

	if cfg.Cache.RedisAddr == "" {
		return fetcher, func() {}
	}
	cache, err := collector.NewRedisCache(collector.RedisConfig{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, fetching without cache")
		return fetcher, func() {}
	}
	return &collector.CachedFetcher{Fetcher: fetcher, Cache: cache, TTL: cfg.Cache.TTL},
		func() { _ = cache.Close() }
}
