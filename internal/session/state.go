package session

import (
	"fmt"
	"time"

	"StockAnalyzerView/internal/calculator"
	"StockAnalyzerView/internal/model"
)

// State is the lifecycle state of a Host.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateError
)

var stateNames = [...]string{"empty", "loading", "ready", "error"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Snapshot is a point-in-time copy of a Host, safe to hand to other goroutines.
type Snapshot struct {
	State      State                  `json:"state"`
	Error      string                 `json:"error,omitempty"`
	DrawError  string                 `json:"draw_error,omitempty"`
	Request    model.Request          `json:"request"`
	Generation uint64                 `json:"generation"`
	Width      int                    `json:"width"`
	Height     int                    `json:"height"`
	Samples    int                    `json:"samples"` // length of the primary series
	Range52W   *calculator.PriceRange `json:"range_52w,omitempty"`
	Panes      []model.Pane           `json:"panes,omitempty"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Closed     bool                   `json:"closed,omitempty"` // set once the host has shut down
}
