package calculator

import "StockAnalyzerView/internal/model"

// DefaultVolumeLength is the volume moving-average window.
const DefaultVolumeLength = 20

// VolumePalette colors histogram columns by bar direction.
type VolumePalette struct {
	Up      string
	Down    string
	Neutral string
}

// VolumeHistogram builds one column per bar that carries volume. A column is
// Up when close > open, Down otherwise, and Neutral when the bar has no usable
// open/close (line data or a zero price).
func VolumeHistogram(bars []model.Bar, palette VolumePalette) []model.HistogramPoint {
	out := make([]model.HistogramPoint, 0, len(bars))
	for _, b := range bars {
		if b.Volume == nil {
			continue
		}
		color := palette.Neutral
		if !b.Whitespace && b.Open != 0 && b.Close != 0 {
			if b.Close > b.Open {
				color = palette.Up
			} else {
				color = palette.Down
			}
		}
		out = append(out, model.HistogramPoint{Time: b.Time, Value: *b.Volume, Color: color})
	}
	return out
}

// VolumeSMA averages volume over a trailing window. Unlike SMA, indices before
// length-1 are omitted from the output instead of being placeheld.
func VolumeSMA(volume []model.HistogramPoint, length int) []model.LinePoint {
	if length <= 0 {
		length = DefaultVolumeLength
	}
	out := make([]model.LinePoint, 0, max(len(volume)-length+1, 0))
	rolling(len(volume), length,
		func(i int) (float64, bool) { return volume[i].Value, true },
		func(i int, mean float64, ok bool) {
			if ok {
				out = append(out, model.Point(volume[i].Time, mean))
			}
		})
	return out
}

// VolumeMovingAverage wraps VolumeSMA into an indicator series.
func VolumeMovingAverage(volume []model.HistogramPoint, length int) model.IndicatorSeries {
	if length <= 0 {
		length = DefaultVolumeLength
	}
	return model.IndicatorSeries{
		Kind:   model.KindVolumeSMA,
		Params: model.IndicatorParams{Length: length},
		Points: VolumeSMA(volume, length),
	}
}
