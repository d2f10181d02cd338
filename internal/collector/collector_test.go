package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"StockAnalyzerView/internal/logging"
	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/validator"
)

func TestBackendFetcher_Fetch(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"time": 1698192000, "open": 100, "high": 105, "low": 98, "close": 102, "volume": 1000},
			{"time": 1698278400, "open": 102, "high": 106, "low": 101, "close": 104, "volume": 1200}
		]`))
	}))
	defer srv.Close()

	f := NewBackendFetcher(srv.URL+"/", "secret", "", logging.Discard())
	recs, err := f.Fetch(context.Background(), model.DataStock, model.ResultFull, "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/stock/full/TSLA" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if len(recs) != 2 || *recs[1].Close != 104 {
		t.Fatalf("unexpected records %+v", recs)
	}

	series, err := validator.Validate(recs, model.ResultFull)
	if err != nil {
		t.Fatalf("backend records should validate: %v", err)
	}
	if series.Bars[0].Time != 1698192000 {
		t.Errorf("unexpected first time %d", series.Bars[0].Time)
	}
}

func TestBackendFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"not found", http.StatusNotFound, `{"error":"nope"}`, "Network response was not ok"},
		{"server error", http.StatusInternalServerError, ``, "Network response was not ok"},
		{"bad json", http.StatusOK, `{"time":`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewBackendFetcher(srv.URL, "", "", logging.Discard())
			_, err := f.Fetch(context.Background(), model.DataIndex, model.ResultFull, "SPX")
			var fe *model.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *model.FetchError, got %v", err)
			}
			if tt.message != "" && fe.Error() != tt.message {
				t.Errorf("message %q, want %q", fe.Error(), tt.message)
			}
			if fe.DataType != model.DataIndex || fe.Symbol != "SPX" {
				t.Errorf("unexpected error context %+v", fe)
			}
		})
	}
}

func TestBackendFetcher_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewBackendFetcher(srv.URL, "", "", logging.Discard())
	if _, err := f.Fetch(ctx, model.DataStock, model.ResultSingle, "TSLA"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestYahooFetcher_Fetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1698278400,1698192000,1698364800],
			"indicators":{"quote":[{"open":[102,100,null],"high":[106,105,null],"low":[101,98,null],
			"close":[104,102,null],"volume":[1200,null,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", logging.Discard())
	f.BaseURL = srv.URL

	recs, err := f.Fetch(context.Background(), model.DataIndex, model.ResultFull, "SPX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/^GSPC" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if len(recs) != 2 {
		t.Fatalf("expected null bar to be skipped, got %d records", len(recs))
	}
	if recs[0].Time.(int64) != 1698192000 {
		t.Errorf("records not sorted: %+v", recs)
	}
	if recs[0].Volume == nil || *recs[0].Volume != 0 {
		t.Errorf("missing volume should be zero-filled, got %v", recs[0].Volume)
	}

	single, err := f.Fetch(context.Background(), model.DataStock, model.ResultSingle, "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if single[1].Value == nil || *single[1].Value != 104 || single[1].Open != nil {
		t.Errorf("unexpected single record %+v", single[1])
	}

	if _, err := f.Fetch(context.Background(), model.DataMarket, model.ResultSingle, model.BreadthSymbol); err == nil {
		t.Error("expected breadth to be unavailable")
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = val
	return nil
}

func TestCachedFetcher(t *testing.T) {
	inner := &MockFetcher{Days: 30, Anchor: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	cache := &memCache{data: map[string][]byte{}}
	f := NewCachedFetcher(inner, cache, time.Minute, metrics.NewNop(), logging.Discard())

	first, err := f.Fetch(context.Background(), model.DataStock, model.ResultFull, "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.Fetch(context.Background(), model.DataStock, model.ResultFull, "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.Calls() != 1 {
		t.Errorf("expected one inner fetch, got %d", inner.Calls())
	}
	if _, ok := cache.data["chart:mock:stock:full:TSLA"]; !ok {
		t.Errorf("unexpected cache keys %v", cache.data)
	}
	if len(second) != len(first) {
		t.Fatalf("cached length %d, want %d", len(second), len(first))
	}
	if _, ok := second[0].Time.(json.Number); !ok {
		t.Errorf("cached time should decode as json.Number, got %T", second[0].Time)
	}
	a, errA := validator.Validate(first, model.ResultFull)
	b, errB := validator.Validate(second, model.ResultFull)
	if errA != nil || errB != nil {
		t.Fatalf("validate: %v, %v", errA, errB)
	}
	if a.Bars[29].Time != b.Bars[29].Time || a.Bars[29].Close != b.Bars[29].Close {
		t.Errorf("cached series differs: %+v vs %+v", a.Bars[29], b.Bars[29])
	}
}

func TestCachedFetcher_CacheDown(t *testing.T) {
	inner := &MockFetcher{Days: 5}
	cache := &memCache{data: map[string][]byte{}, err: errors.New("connection refused")}
	f := NewCachedFetcher(inner, cache, time.Minute, nil, logging.Discard())

	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(context.Background(), model.DataStock, model.ResultSingle, "TSLA"); err != nil {
			t.Fatalf("cache failure must fall through, got %v", err)
		}
	}
	if inner.Calls() != 2 {
		t.Errorf("expected two inner fetches, got %d", inner.Calls())
	}
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	inner := &MockFetcher{Err: errors.New("boom")}
	cache := &memCache{data: map[string][]byte{}}
	f := NewCachedFetcher(inner, cache, time.Minute, nil, logging.Discard())

	if _, err := f.Fetch(context.Background(), model.DataStock, model.ResultSingle, "TSLA"); err == nil {
		t.Fatal("expected error")
	}
	if len(cache.data) != 0 {
		t.Errorf("errors must not be cached: %v", cache.data)
	}
}

func TestMockFetcher(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m := &MockFetcher{Days: 10, Anchor: anchor}

	recs, err := m.Fetch(context.Background(), model.DataStock, model.ResultSingle, "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 10 || recs[9].Time.(int64) != anchor.Unix() || recs[0].Value == nil {
		t.Errorf("unexpected records %+v", recs)
	}

	breadth, _ := m.Fetch(context.Background(), model.DataMarket, model.ResultSingle, model.BreadthSymbol)
	for _, r := range breadth {
		if *r.Value < 0 || *r.Value > 1 {
			t.Errorf("breadth out of range: %v", *r.Value)
		}
	}

	override := []model.RawRecord{{Time: "bad"}}
	m.Data = map[string][]model.RawRecord{MockKey(model.DataStock, model.ResultFull, "X"): override}
	got, _ := m.Fetch(context.Background(), model.DataStock, model.ResultFull, "X")
	if len(got) != 1 || got[0].Time != "bad" {
		t.Errorf("override not returned: %+v", got)
	}
}
