package surface

import (
	"fmt"
	"sync"

	"StockAnalyzerView/internal/model"
)

// Op names a recorded surface call.
type Op string

const (
	OpAddPane    Op = "add_pane"
	OpAddSeries  Op = "add_series"
	OpSetData    Op = "set_data"
	OpFitContent Op = "fit_content"
	OpResize     Op = "resize"
	OpDispose    Op = "dispose"
)

// Call is one recorded surface call.
type Call struct {
	Op     Op               `json:"op"`
	Pane   int              `json:"pane"`
	Series int              `json:"series,omitempty"`
	Value  int              `json:"value,omitempty"` // height for add_pane, width for resize, length for set_data
	Type   model.SeriesType `json:"type,omitempty"`
}

// Memory is a Surface that keeps panes in memory and records every call.
type Memory struct {
	mu       sync.Mutex
	width    int
	height   int
	panes    []model.Pane
	calls    []Call
	fitted   bool
	disposed bool
}

// NewMemory returns a surface with its primary pane already created.
func NewMemory(width, height int) *Memory {
	return &Memory{
		width:  width,
		height: height,
		panes:  []model.Pane{{ID: 0}},
	}
}

// MemoryFactory adapts NewMemory to Factory.
func MemoryFactory(width, height int) Surface { return NewMemory(width, height) }

func (m *Memory) AddPane(height int) (PaneHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return 0, ErrDisposed
	}
	id := len(m.panes)
	m.panes = append(m.panes, model.Pane{ID: id, Height: height})
	m.calls = append(m.calls, Call{Op: OpAddPane, Pane: id, Value: height})
	return PaneHandle(id), nil
}

func (m *Memory) AddSeries(pane int, opts model.SeriesOptions) (SeriesHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return SeriesHandle{}, ErrDisposed
	}
	if pane < 0 || pane >= len(m.panes) {
		return SeriesHandle{}, fmt.Errorf("%w: %d", ErrUnknownPane, pane)
	}
	p := &m.panes[pane]
	if p.PriceScale == "" {
		p.PriceScale = opts.PriceScaleID
	}
	p.Series = append(p.Series, model.Series{Options: opts})
	idx := len(p.Series) - 1
	m.calls = append(m.calls, Call{Op: OpAddSeries, Pane: pane, Series: idx, Type: opts.Type})
	return SeriesHandle{Pane: pane, Index: idx}, nil
}

func (m *Memory) SetData(h SeriesHandle, s model.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if h.Pane < 0 || h.Pane >= len(m.panes) {
		return fmt.Errorf("%w: %d", ErrUnknownPane, h.Pane)
	}
	p := &m.panes[h.Pane]
	if h.Index < 0 || h.Index >= len(p.Series) {
		return fmt.Errorf("%w: pane %d series %d", ErrUnknownSeries, h.Pane, h.Index)
	}
	cur := &p.Series[h.Index]
	if s.Options.Type != "" && s.Options.Type != cur.Options.Type {
		return fmt.Errorf("series %d/%d is %s, got %s data", h.Pane, h.Index, cur.Options.Type, s.Options.Type)
	}
	cur.Kind = s.Kind
	cur.Bars = s.Bars
	cur.Points = s.Points
	cur.Histogram = s.Histogram
	m.calls = append(m.calls, Call{Op: OpSetData, Pane: h.Pane, Series: h.Index, Value: s.Len(), Type: cur.Options.Type})
	return nil
}

func (m *Memory) FitContent() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	m.fitted = true
	m.calls = append(m.calls, Call{Op: OpFitContent})
	return nil
}

func (m *Memory) Resize(width int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if width <= 0 {
		return fmt.Errorf("%w: %d", ErrBadWidth, width)
	}
	m.width = width
	m.calls = append(m.calls, Call{Op: OpResize, Value: width})
	return nil
}

// Dispose releases the surface. A second Dispose is a no-op.
func (m *Memory) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil
	}
	m.disposed = true
	m.calls = append(m.calls, Call{Op: OpDispose})
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CountOp returns how many times op was called.
func (m *Memory) CountOp(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Panes returns a copy of the pane tree. Data slices are shared and must not
// be modified.
func (m *Memory) Panes() []model.Pane {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Pane, len(m.panes))
	for i, p := range m.panes {
		p.Series = append([]model.Series(nil), p.Series...)
		out[i] = p
	}
	return out
}

// Size returns the current width and height.
func (m *Memory) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *Memory) Fitted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fitted
}

func (m *Memory) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}
