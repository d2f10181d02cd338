// Package layout maps a primary series and its derived indicators onto the
// ordered panes of a chart. Colors and ordering are fixed by indicator kind.
package layout

import (
	"errors"

	"StockAnalyzerView/internal/calculator"
	"StockAnalyzerView/internal/model"
)

// ErrNoBars is returned when a candlestick or index chart is planned from line data.
var ErrNoBars = errors.New("candlestick and index charts need OHLC bars")

// Input is everything a chart is planned from.
type Input struct {
	Symbol  string
	Mode    model.Mode
	Bars    []model.Bar       // full results
	Points  []model.LinePoint // single results
	Breadth []model.LinePoint // index mode only
}

// Plan builds the pane list:
//
//	pane 0: primary series + SMA 20/50/200 overlays
//	pane 1: volume histogram + volume SMA on the volume scale
//	pane 2: breadth line on the percent scale (index mode only)
//
// Pane 0 has Height 0, meaning it takes whatever the sub-panes leave.
func Plan(in Input) ([]model.Pane, error) {
	primary := model.Series{Options: primaryOptions(in.Mode, in.Symbol)}
	var prices []model.LinePoint

	switch in.Mode {
	case model.ModeLine:
		if in.Points == nil && in.Bars != nil {
			in.Points = calculator.Closes(in.Bars)
		}
		primary.Points = nonNil(in.Points)
		prices = in.Points
	default:
		if in.Bars == nil && len(in.Points) > 0 {
			return nil, ErrNoBars
		}
		primary.Bars = in.Bars
		if primary.Bars == nil {
			primary.Bars = []model.Bar{}
		}
		prices = calculator.Closes(in.Bars)
	}

	pricePane := model.Pane{ID: 0, PriceScale: PriceScaleRight, Series: []model.Series{primary}}
	for _, ma := range MovingAverages {
		ind := calculator.MovingAverage(prices, ma.Length)
		pricePane.Series = append(pricePane.Series, model.Series{
			Kind:    ind.Kind,
			Options: overlayOptions(ma),
			Points:  ind.Points,
		})
	}

	histogram := calculator.VolumeHistogram(in.Bars, VolumePalette)
	volSMA := calculator.VolumeMovingAverage(histogram, VolumeSMALength)
	volumePane := model.Pane{
		ID:         1,
		Height:     SubPaneHeight,
		PriceScale: PriceScaleVolume,
		Series: []model.Series{
			{Options: volumeOptions, Histogram: histogram},
			{Kind: volSMA.Kind, Options: volumeSMAOptions, Points: volSMA.Points},
		},
	}

	panes := []model.Pane{pricePane, volumePane}

	if in.Mode == model.ModeIndex {
		breadth := calculator.Breadth(in.Bars, in.Breadth)
		panes = append(panes, model.Pane{
			ID:         2,
			Height:     SubPaneHeight,
			PriceScale: PriceScalePercent,
			Series: []model.Series{
				{Kind: breadth.Kind, Options: breadthOptions, Points: breadth.Points},
			},
		})
	}
	return panes, nil
}

func nonNil(points []model.LinePoint) []model.LinePoint {
	if points == nil {
		return []model.LinePoint{}
	}
	return points
}
