package recorder

import (
	"time"

	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/session"
)

// RenderEvent is one settled render cycle.
type RenderEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Generation uint64    `json:"generation"`
	Symbol     string    `json:"symbol"`
	Mode       string    `json:"mode"`
	State      string    `json:"state"` // "ready", "empty" or "error"
	Error      string    `json:"error,omitempty"`
	DrawError  string    `json:"draw_error,omitempty"`
	Samples    int       `json:"samples"`
	Panes      int       `json:"panes"`
	Series     int       `json:"series"`
}

// Recorder persists render history for analysis.
type Recorder interface {
	RecordRender(evt *RenderEvent) error
	// Recent returns up to limit events, newest first.
	Recent(limit int) ([]RenderEvent, error)
	Close() error
}

// EventFromSnapshot converts a settled snapshot. ok is false for Loading,
// which is not a settled cycle, and for the shutdown snapshot.
func EventFromSnapshot(snap session.Snapshot) (evt *RenderEvent, ok bool) {
	if snap.State == session.StateLoading || snap.Closed {
		return nil, false
	}
	evt = &RenderEvent{
		Timestamp:  snap.UpdatedAt,
		Generation: snap.Generation,
		Symbol:     snap.Request.Symbol,
		Mode:       string(snap.Request.Mode),
		State:      snap.State.String(),
		Error:      snap.Error,
		DrawError:  snap.DrawError,
		Samples:    snap.Samples,
		Panes:      len(snap.Panes),
	}
	for _, p := range snap.Panes {
		evt.Series += len(p.Series)
	}
	return evt, true
}

// Observer returns a session observer that records every settled cycle.
// Recording failures are logged, never propagated.
func Observer(rec Recorder, logger *logrus.Logger) func(session.Snapshot) {
	log := logger.WithField("component", "recorder")
	return func(snap session.Snapshot) {
		evt, ok := EventFromSnapshot(snap)
		if !ok || evt.Symbol == "" {
			return
		}
		if err := rec.RecordRender(evt); err != nil {
			log.WithError(err).WithField("generation", evt.Generation).Warn("record render cycle")
		}
	}
}
