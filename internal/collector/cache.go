package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"ForexSignal/internal/model"
)

// Cache stores fetched series by key.
type Cache interface {
	Get(ctx context.Context, key string) (model.Series, bool, error)
	Set(ctx context.Context, key string, series model.Series, ttl time.Duration) error
}

// CachedFetcher serves series from Cache before asking the wrapped Fetcher.
// Cache failures are logged and bypassed.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   Cache
	TTL     time.Duration
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() + "+cache" }

// Fetch implements Fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (model.Series, error) {
	key := cacheKey(c.Fetcher.Name(), symbol, start, end)

	series, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("series cache read failed")
	} else if ok {
		log.Debug().Str("key", key).Int("bars", series.Len()).Msg("series cache hit")
		return series, nil
	}

	series, err = c.Fetcher.Fetch(ctx, symbol, start, end)
	if err != nil {
		return model.Series{}, err
	}
	if err := c.Cache.Set(ctx, key, series, c.TTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("series cache write failed")
	}
	return series, nil
}

func cacheKey(source, symbol string, start, end time.Time) string {
	return fmt.Sprintf("forexsignal:series:%s:%s:%s:%s", source, symbol,
		start.Format(model.DateLayout), end.Format(model.DateLayout))
}

// RedisConfig configures the Redis series cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache keeps series as JSON strings in Redis.
type RedisCache struct {
	client *goredis.Client
}

// NewRedisCache creates the client and pings the server.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis series cache connected")
	return &RedisCache{client: client}, nil
}

// Get implements Cache.
func (r *RedisCache) Get(ctx context.Context, key string) (model.Series, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.Series{}, false, nil
	}
	if err != nil {
		return model.Series{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var s model.Series
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Series{}, false, fmt.Errorf("decode cached series %s: %w", key, err)
	}
	return s, true, nil
}

// Set implements Cache.
func (r *RedisCache) Set(ctx context.Context, key string, series model.Series, ttl time.Duration) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
