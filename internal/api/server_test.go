package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"StockAnalyzerView/internal/collector"
	"StockAnalyzerView/internal/logging"
	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/recorder"
	"StockAnalyzerView/internal/session"
	"StockAnalyzerView/internal/surface"
)

type stubHistory struct {
	limit int
}

func (s *stubHistory) Recent(limit int) ([]recorder.RenderEvent, error) {
	s.limit = limit
	return []recorder.RenderEvent{{Symbol: "TSLA", Mode: "line", State: "ready"}}, nil
}

func newTestServer(t *testing.T, f collector.Fetcher) (http.Handler, *session.Host, *stubHistory) {
	t.Helper()
	reg := prometheus.NewRegistry()
	host := session.NewHost(session.Options{
		Fetcher: f,
		Factory: surface.RasterFactory,
		Width:   640,
		Height:  400,
		Metrics: metrics.New(reg),
		Logger:  logging.Discard(),
	})
	t.Cleanup(func() { host.Close() })
	hist := &stubHistory{}
	h := NewServer(Options{
		Host:     host,
		History:  hist,
		Gatherer: reg,
		Policy:   model.RequestPolicy{DefaultSymbol: "tsla", Indices: []string{"SPX", "NDX", "DJI"}},
		Logger:   logging.Discard(),
	})
	return h, host, hist
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, w.Body.String())
	}
	return snap
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestServer(t, &collector.MockFetcher{})
	if w := do(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRequestChart_Defaults(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		symbol string
		mode   model.Mode
		panes  int
	}{
		{"stock default", `{"mode":"line"}`, "TSLA", model.ModeLine, 2},
		{"candlestick", `{"symbol":" aapl ","mode":"candlestick"}`, "AAPL", model.ModeCandlestick, 2},
		{"index default", `{"mode":"index"}`, "SPX", model.ModeIndex, 3},
		{"index toggle", `{"symbol":"ndx","mode":"index"}`, "NDX", model.ModeIndex, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestServer(t, &collector.MockFetcher{Days: 260})
			w := do(t, h, http.MethodPost, "/api/v1/chart", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			snap := decodeSnapshot(t, w)
			if snap.State != session.StateReady {
				t.Errorf("state = %s, want ready", snap.State)
			}
			if snap.Request.Symbol != tt.symbol || snap.Request.Mode != tt.mode {
				t.Errorf("request = %+v", snap.Request)
			}
			if len(snap.Panes) != tt.panes {
				t.Errorf("panes = %d, want %d", len(snap.Panes), tt.panes)
			}
			if snap.Samples != 260 {
				t.Errorf("samples = %d, want 260", snap.Samples)
			}
		})
	}
}

func TestRequestChart_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher collector.Fetcher
		body    string
		status  int
		message string
	}{
		{"unknown index", &collector.MockFetcher{}, `{"symbol":"FTSE","mode":"index"}`, http.StatusBadRequest, "unknown index FTSE"},
		{"bad mode", &collector.MockFetcher{}, `{"symbol":"TSLA","mode":"area"}`, http.StatusUnprocessableEntity, ""},
		{"fetch failure", &collector.MockFetcher{Err: errors.New("Network response was not ok")}, `{"mode":"line"}`, http.StatusBadGateway, "Network response was not ok"},
		{
			"invalid timestamp",
			&collector.MockFetcher{Data: map[string][]model.RawRecord{
				collector.MockKey(model.DataStock, model.ResultSingle, "TSLA"): {{Time: "2024-01-02", Value: model.Float(1)}},
			}},
			`{"mode":"line"}`, http.StatusUnprocessableEntity, "invalid timestamp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestServer(t, tt.fetcher)
			w := do(t, h, http.MethodPost, "/api/v1/chart", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.message != "" && !strings.Contains(w.Body.String(), tt.message) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.message)
			}
		})
	}
}

// heldFetcher blocks until release is closed, then fails if its context
// has ended by then.
type heldFetcher struct {
	collector.MockFetcher
	started chan struct{}
	release chan struct{}
}

func (f *heldFetcher) Fetch(ctx context.Context, dt model.DataType, rt model.ResultType, symbol string) ([]model.RawRecord, error) {
	f.started <- struct{}{}
	<-f.release
	if err := ctx.Err(); err != nil {
		return nil, &model.FetchError{Message: err.Error(), Err: err}
	}
	return f.MockFetcher.Fetch(ctx, dt, rt, symbol)
}

func TestRequestChart_ClientDisconnectKeepsCycle(t *testing.T) {
	f := &heldFetcher{
		MockFetcher: collector.MockFetcher{Days: 30},
		started:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	h, host, _ := newTestServer(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chart", strings.NewReader(`{"symbol":"TSLA","mode":"line"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}()

	<-f.started
	cancel()
	close(f.release)
	<-done

	snap := host.Snapshot()
	if snap.State != session.StateReady || snap.Error != "" {
		t.Fatalf("state = %s (%q), want ready", snap.State, snap.Error)
	}
	if snap.Samples != 30 {
		t.Errorf("samples = %d, want 30", snap.Samples)
	}
}

func TestResizeAndImage(t *testing.T) {
	h, host, _ := newTestServer(t, &collector.MockFetcher{Days: 120})

	if w := do(t, h, http.MethodPut, "/api/v1/chart/resize", `{"width":800}`); w.Code != http.StatusConflict {
		t.Fatalf("resize before ready: status = %d, want 409", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/v1/chart/image.png", ""); w.Code != http.StatusConflict {
		t.Fatalf("image before ready: status = %d, want 409", w.Code)
	}

	if w := do(t, h, http.MethodPost, "/api/v1/chart", `{"symbol":"TSLA","mode":"candlestick"}`); w.Code != http.StatusOK {
		t.Fatalf("request: status = %d: %s", w.Code, w.Body.String())
	}

	w := do(t, h, http.MethodPut, "/api/v1/chart/resize", `{"width":800}`)
	if w.Code != http.StatusOK {
		t.Fatalf("resize: status = %d: %s", w.Code, w.Body.String())
	}
	if snap := decodeSnapshot(t, w); snap.Width != 800 {
		t.Errorf("width = %d, want 800", snap.Width)
	}
	if got := host.Snapshot().Width; got != 800 {
		t.Errorf("host width = %d, want 800", got)
	}

	w = do(t, h, http.MethodGet, "/api/v1/chart/image.png", "")
	if w.Code != http.StatusOK {
		t.Fatalf("image: status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 400 {
		t.Errorf("image size = %dx%d, want 800x400", b.Dx(), b.Dy())
	}
}

func TestRefresh(t *testing.T) {
	f := &collector.MockFetcher{Anchor: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}
	h, _, _ := newTestServer(t, f)

	// Nothing to refresh yet.
	if w := do(t, h, http.MethodPost, "/api/v1/chart/refresh", ""); w.Code != http.StatusOK {
		t.Fatalf("refresh before request: status = %d", w.Code)
	}
	if f.Calls() != 0 {
		t.Fatalf("refresh before request fetched %d times", f.Calls())
	}

	do(t, h, http.MethodPost, "/api/v1/chart", `{"mode":"line"}`)
	w := do(t, h, http.MethodPost, "/api/v1/chart/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d", w.Code)
	}
	if snap := decodeSnapshot(t, w); snap.Generation != 2 {
		t.Errorf("generation = %d, want 2", snap.Generation)
	}
	if f.Calls() != 2 {
		t.Errorf("fetches = %d, want 2", f.Calls())
	}
}

func TestHistoryAndMetrics(t *testing.T) {
	h, _, hist := newTestServer(t, &collector.MockFetcher{})

	w := do(t, h, http.MethodGet, "/api/v1/history?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("history: status = %d", w.Code)
	}
	if hist.limit != 5 {
		t.Errorf("limit = %d, want 5", hist.limit)
	}
	if !strings.Contains(w.Body.String(), `"symbol":"TSLA"`) {
		t.Errorf("unexpected history body %s", w.Body.String())
	}

	do(t, h, http.MethodPost, "/api/v1/chart", `{"mode":"line"}`)
	w = do(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `mode="line"`) {
		t.Errorf("metrics missing request counter:\n%s", w.Body.String())
	}
}

func TestMapErr(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&model.FetchError{Message: "Network response was not ok"}, http.StatusBadGateway},
		{&model.UnorderedSeriesError{Index: 1}, http.StatusUnprocessableEntity},
		{&model.UnknownIndexError{Symbol: "FTSE", Allowed: []string{"SPX"}}, http.StatusBadRequest},
		{session.ErrEmptySymbol, http.StatusBadRequest},
		{surface.ErrBadWidth, http.StatusBadRequest},
		{model.ErrStaleRequest, http.StatusConflict},
		{session.ErrClosed, http.StatusServiceUnavailable},
		{session.ErrNoRaster, http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var se interface{ GetStatus() int }
		if !errors.As(mapErr(tt.err), &se) {
			t.Fatalf("%v: not a status error", tt.err)
		}
		if se.GetStatus() != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, se.GetStatus(), tt.status)
		}
	}
}
