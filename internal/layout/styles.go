package layout

import (
	"StockAnalyzerView/internal/calculator"
	"StockAnalyzerView/internal/model"
)

// MovingAverageSpec is one fixed price overlay.
type MovingAverageSpec struct {
	Length int
	Color  string
}

// MovingAverages are the price overlays of pane 0, in drawing order.
var MovingAverages = []MovingAverageSpec{
	{Length: 20, Color: "orange"},
	{Length: 50, Color: "green"},
	{Length: 200, Color: "pink"},
}

// VolumePalette colors the volume histogram.
var VolumePalette = calculator.VolumePalette{
	Up:      "rgba(38, 166, 154, 0.8)",
	Down:    "rgba(239, 83, 80, 0.8)",
	Neutral: "rgba(100, 149, 237, 0.5)",
}

const (
	// PrimaryColor is the line color of the primary series.
	PrimaryColor = "blue"
	// SubPaneHeight is the height of every pane below the price pane.
	SubPaneHeight = 100

	PriceScaleRight   = "right"
	PriceScaleVolume  = "volume"
	PriceScalePercent = "percent"
)

// VolumeSMALength is the window of the volume moving average.
const VolumeSMALength = calculator.DefaultVolumeLength

func primaryOptions(mode model.Mode, symbol string) model.SeriesOptions {
	typ := model.SeriesCandlestick
	if mode == model.ModeLine {
		typ = model.SeriesLine
	}
	return model.SeriesOptions{
		Type:         typ,
		Title:        symbol,
		Color:        PrimaryColor,
		PriceScaleID: PriceScaleRight,
	}
}

func overlayOptions(spec MovingAverageSpec) model.SeriesOptions {
	return model.SeriesOptions{
		Type:         model.SeriesLine,
		Color:        spec.Color,
		LineWidth:    1,
		PriceScaleID: PriceScaleRight,
	}
}

var (
	volumeOptions = model.SeriesOptions{
		Type:             model.SeriesHistogram,
		PriceScaleID:     PriceScaleVolume,
		PriceFormat:      "volume",
		LastValueVisible: true,
		PriceLineVisible: true,
	}
	volumeSMAOptions = model.SeriesOptions{
		Type:         model.SeriesLine,
		Color:        "rgba(120, 80, 239, 0.8)",
		LineWidth:    1.5,
		PriceScaleID: PriceScaleVolume,
	}
	breadthOptions = model.SeriesOptions{
		Type:             model.SeriesLine,
		Color:            "red",
		PriceScaleID:     PriceScalePercent,
		PriceFormat:      "percent",
		LastValueVisible: true,
		PriceLineVisible: true,
	}
)
