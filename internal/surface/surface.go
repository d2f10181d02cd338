// Package surface defines the drawing target of a chart session and ships two
// implementations: Memory, which records every call, and Raster, which renders
// the recorded panes to PNG.
package surface

import (
	"errors"

	"StockAnalyzerView/internal/model"
)

var (
	ErrDisposed      = errors.New("surface disposed")
	ErrUnknownPane   = errors.New("unknown pane")
	ErrUnknownSeries = errors.New("unknown series")
	ErrBadWidth      = errors.New("width must be positive")
)

// PaneHandle identifies a pane. Pane 0 exists from creation.
type PaneHandle int

// SeriesHandle identifies a series inside a pane.
type SeriesHandle struct {
	Pane  int
	Index int
}

// Surface is a multi-pane chart canvas. Implementations are owned by exactly
// one session and are not required to be safe for concurrent use by several.
type Surface interface {
	// AddPane appends a pane below the existing ones. Height 0 means "fill".
	AddPane(height int) (PaneHandle, error)
	AddSeries(pane int, opts model.SeriesOptions) (SeriesHandle, error)
	SetData(h SeriesHandle, s model.Series) error
	FitContent() error
	// Resize changes the width only; series and data are untouched.
	Resize(width int) error
	Dispose() error
}

// Factory builds a surface of the given size.
type Factory func(width, height int) Surface
