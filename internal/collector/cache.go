package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
)

// Cache is the key-value store behind CachedFetcher.
type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	client *goredis.Client
}

// RedisOptions selects the Redis server.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, val, ttl).Err()
}

func (c *RedisCache) Close() error { return c.client.Close() }

// CachedFetcher is a read-through cache in front of another Fetcher. Cache
// failures are logged and fall through to the inner fetcher; fetch errors are
// never cached.
type CachedFetcher struct {
	Inner   Fetcher
	Cache   Cache
	TTL     time.Duration
	metrics *metrics.Metrics
	log     *logrus.Entry
}

func NewCachedFetcher(inner Fetcher, cache Cache, ttl time.Duration, m *metrics.Metrics, logger *logrus.Logger) *CachedFetcher {
	return &CachedFetcher{
		Inner:   inner,
		Cache:   cache,
		TTL:     ttl,
		metrics: m,
		log:     logger.WithField("component", "fetch_cache"),
	}
}

func (f *CachedFetcher) Name() string { return f.Inner.Name() + "+redis" }

func (f *CachedFetcher) key(dt model.DataType, rt model.ResultType, symbol string) string {
	return fmt.Sprintf("chart:%s:%s:%s:%s", f.Inner.Name(), dt, rt, symbol)
}

func (f *CachedFetcher) Fetch(ctx context.Context, dt model.DataType, rt model.ResultType, symbol string) ([]model.RawRecord, error) {
	key := f.key(dt, rt, symbol)

	data, ok, err := f.Cache.Get(ctx, key)
	if err != nil {
		f.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if ok {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var records []model.RawRecord
		if err := dec.Decode(&records); err == nil {
			if f.metrics != nil {
				f.metrics.CacheHits.Inc()
			}
			return records, nil
		}
		f.log.WithField("key", key).Warn("discarding undecodable cache entry")
	}
	if f.metrics != nil {
		f.metrics.CacheMisses.Inc()
	}

	records, err := f.Inner.Fetch(ctx, dt, rt, symbol)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(records); err == nil {
		if err := f.Cache.Set(ctx, key, payload, f.TTL); err != nil {
			f.log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
	return records, nil
}
