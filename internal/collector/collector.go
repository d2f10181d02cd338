package collector

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/config"
	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
)

// MockFetcher returns controllable generated data for development and testing.
type MockFetcher struct {
	Price  float64
	Days   int
	Anchor time.Time                    // last bar's day; zero means today (UTC)
	Data   map[string][]model.RawRecord // keyed by MockKey; overrides generation
	Err    error                        // returned by every Fetch when set

	mu    sync.Mutex
	calls int
}

// MockKey is the Data key of one series.
func MockKey(dt model.DataType, rt model.ResultType, symbol string) string {
	return fmt.Sprintf("%s/%s/%s", dt, rt, symbol)
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many fetches were made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) Fetch(ctx context.Context, dt model.DataType, rt model.ResultType, symbol string) ([]model.RawRecord, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fetchError(dt, rt, symbol, 0, err.Error(), err)
	}
	if m.Err != nil {
		return nil, fetchError(dt, rt, symbol, 0, m.Err.Error(), m.Err)
	}
	if recs, ok := m.Data[MockKey(dt, rt, symbol)]; ok {
		return recs, nil
	}

	days := m.Days
	if days <= 0 {
		days = 300
	}
	price := m.Price
	if price <= 0 {
		price = 100
	}
	anchor := m.Anchor
	if anchor.IsZero() {
		anchor = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if dt == model.DataMarket {
		return generateMockBreadth(anchor, days), nil
	}
	return generateMockRecords(anchor, price, days, rt), nil
}

func generateMockRecords(anchor time.Time, basePrice float64, count int, rt model.ResultType) []model.RawRecord {
	recs := make([]model.RawRecord, count)
	for i := 0; i < count; i++ {
		ts := anchor.AddDate(0, 0, -(count - 1 - i)).Unix()
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.02*math.Sin(float64(i)/9))
		if rt == model.ResultSingle {
			recs[i] = model.RawRecord{Time: ts, Value: model.Float(p)}
			continue
		}
		recs[i] = model.RawRecord{
			Time:   ts,
			Open:   model.Float(p * 0.999),
			High:   model.Float(p * 1.005),
			Low:    model.Float(p * 0.995),
			Close:  model.Float(p),
			Volume: model.Float(1000000 + 250000*math.Cos(float64(i)/5)),
		}
	}
	return recs
}

func generateMockBreadth(anchor time.Time, count int) []model.RawRecord {
	recs := make([]model.RawRecord, count)
	for i := 0; i < count; i++ {
		ts := anchor.AddDate(0, 0, -(count - 1 - i)).Unix()
		recs[i] = model.RawRecord{Time: ts, Value: model.Float(0.5 + 0.3*math.Sin(float64(i)/20))}
	}
	return recs
}

// New builds the configured Fetcher, wrapped in a Redis cache when one is
// configured. The closer releases the cache connection.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *logrus.Logger) (Fetcher, io.Closer, error) {
	var f Fetcher
	switch cfg.DataSource.Provider {
	case "yahoo":
		f = NewYahooFetcher(cfg.Proxy, logger)
	case "mock":
		f = &MockFetcher{}
	default:
		f = NewBackendFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, logger)
	}

	if cfg.Cache.RedisAddr == "" {
		return f, nopCloser{}, nil
	}
	cache, err := NewRedisCache(ctx, RedisOptions{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("addr", cfg.Cache.RedisAddr).Info("fetch cache enabled")
	return NewCachedFetcher(f, cache, cfg.Cache.TTL, m, logger), cache, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
