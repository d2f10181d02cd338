package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"StockAnalyzerView/internal/logging"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/session"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rec.Close()

	events := []RenderEvent{
		{Generation: 1, Symbol: "TSLA", Mode: "candlestick", State: "ready", Samples: 250, Panes: 2, Series: 6},
		{Generation: 2, Symbol: "SPX", Mode: "index", State: "error", Error: "Network response was not ok"},
	}
	for i := range events {
		if err := rec.RecordRender(&events[i]); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	got, err := rec.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Symbol != "SPX" || got[0].Error != "Network response was not ok" || got[0].Generation != 2 {
		t.Errorf("unexpected newest event %+v", got[0])
	}
	if got[1].Series != 6 || got[1].DrawError != "" {
		t.Errorf("unexpected oldest event %+v", got[1])
	}

	if got, _ := rec.Recent(1); len(got) != 1 {
		t.Errorf("limit ignored: %d events", len(got))
	}
}

func TestEventFromSnapshot(t *testing.T) {
	if _, ok := EventFromSnapshot(session.Snapshot{State: session.StateLoading}); ok {
		t.Error("loading is not a settled cycle")
	}
	if _, ok := EventFromSnapshot(session.Snapshot{State: session.StateEmpty, Request: model.Request{Symbol: "TSLA"}, Closed: true}); ok {
		t.Error("shutdown snapshot is not a render cycle")
	}

	snap := session.Snapshot{
		State:      session.StateReady,
		Request:    model.Request{Symbol: "TSLA", Mode: model.ModeLine},
		Generation: 7,
		Samples:    3,
		Panes:      []model.Pane{{Series: make([]model.Series, 4)}, {Series: make([]model.Series, 2)}},
		UpdatedAt:  time.Unix(1700000000, 0),
	}
	evt, ok := EventFromSnapshot(snap)
	if !ok {
		t.Fatal("ready snapshot should convert")
	}
	if evt.State != "ready" || evt.Mode != "line" || evt.Panes != 2 || evt.Series != 6 || evt.Generation != 7 {
		t.Errorf("unexpected event %+v", evt)
	}
}

type failingRecorder struct {
	NoopRecorder
	calls int
}

func (f *failingRecorder) RecordRender(_ *RenderEvent) error {
	f.calls++
	return errors.New("disk full")
}

func TestObserver(t *testing.T) {
	rec := &failingRecorder{}
	observe := Observer(rec, logging.Discard())

	observe(session.Snapshot{State: session.StateLoading, Request: model.Request{Symbol: "TSLA"}})
	observe(session.Snapshot{State: session.StateEmpty}) // no request
	observe(session.Snapshot{State: session.StateEmpty, Request: model.Request{Symbol: "TSLA"}, Closed: true})
	observe(session.Snapshot{State: session.StateError, Request: model.Request{Symbol: "TSLA"}, Error: "boom"})

	if rec.calls != 1 {
		t.Errorf("expected 1 recorded event, got %d", rec.calls)
	}
}
