// Package session runs chart render cycles: fetch, validate, compute, plan and
// draw onto a surface, with at most one live surface per Host.
package session

import (
	"fmt"

	"StockAnalyzerView/internal/calculator"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/surface"
	"StockAnalyzerView/internal/validator"
)

// Session is one render cycle. It exclusively owns its surface.
type Session struct {
	Request    model.Request
	Generation uint64
	Panes      []model.Pane // as planned
	Samples    int
	Range      *calculator.PriceRange // trailing 52-week range of the primary series
	// DrawErr is the *model.RenderError that stopped drawing, if any.
	DrawErr error

	surface    surface.Surface
	width      int
	unregister func()
}

// draw puts every planned pane on the surface in order and fits the time
// scale. The first failure stops drawing and is returned as a
// *model.RenderError; what was drawn before it stays.
func (s *Session) draw() (err error) {
	stage := "setup"
	defer func() {
		if r := recover(); r != nil {
			err = &model.RenderError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	for _, p := range s.Panes {
		pane := 0
		if p.ID > 0 {
			stage = fmt.Sprintf("pane %d", p.ID)
			h, err := s.surface.AddPane(p.Height)
			if err != nil {
				return &model.RenderError{Stage: stage, Err: err}
			}
			pane = int(h)
		}
		for i, series := range p.Series {
			stage = fmt.Sprintf("pane %d series %d", p.ID, i)
			h, err := s.surface.AddSeries(pane, series.Options)
			if err != nil {
				return &model.RenderError{Stage: stage, Err: err}
			}
			if err := s.surface.SetData(h, series); err != nil {
				return &model.RenderError{Stage: stage, Err: err}
			}
		}
	}

	stage = "fit content"
	if err := s.surface.FitContent(); err != nil {
		return &model.RenderError{Stage: stage, Err: err}
	}
	return nil
}

// resize forwards a width change to the surface once per distinct width.
func (s *Session) resize(width int) error {
	if width == s.width {
		return nil
	}
	if err := s.surface.Resize(width); err != nil {
		return err
	}
	s.width = width
	return nil
}

// dispose releases the surface and the resize listener.
func (s *Session) dispose() error {
	if s.unregister != nil {
		s.unregister()
		s.unregister = nil
	}
	return s.surface.Dispose()
}

// drawnPanes returns the panes as the surface holds them when it can tell,
// otherwise the plan.
func (s *Session) drawnPanes() []model.Pane {
	if p, ok := s.surface.(interface{ Panes() []model.Pane }); ok {
		return p.Panes()
	}
	return s.Panes
}

func trailingYear(primary validator.Series) *calculator.PriceRange {
	var (
		r  calculator.PriceRange
		ok bool
	)
	if len(primary.Bars) > 0 {
		r, ok = calculator.TrailingRange(primary.Bars, calculator.TradingYear)
	} else {
		r, ok = calculator.TrailingRangePoints(primary.Points, calculator.TradingYear)
	}
	if !ok {
		return nil
	}
	return &r
}
