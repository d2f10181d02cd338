package calculator

import (
	"StockAnalyzerView/internal/model"
)

// resumEvery bounds how many running-sum updates happen before the window is
// summed again from scratch, so rounding error cannot accumulate over long histories.
const resumEvery = 512

// rolling walks n samples with a trailing window of the given length and calls
// emit for every index. ok is false until the window is full and every sample
// in it is present.
func rolling(n, length int, at func(i int) (float64, bool), emit func(i int, mean float64, ok bool)) {
	if length <= 0 {
		for i := 0; i < n; i++ {
			emit(i, 0, false)
		}
		return
	}
	var (
		sum    float64
		valued int
		steps  int
	)
	for i := 0; i < n; i++ {
		if v, ok := at(i); ok {
			sum += v
			valued++
		}
		if i >= length {
			if v, ok := at(i - length); ok {
				sum -= v
				valued--
			}
		}
		if i < length-1 || valued < length {
			emit(i, 0, false)
			continue
		}
		steps++
		if steps%resumEvery == 0 {
			sum = 0
			for j := i - length + 1; j <= i; j++ {
				v, _ := at(j)
				sum += v
			}
		}
		emit(i, sum/float64(length), true)
	}
}

// SMA computes the simple moving average of points over a trailing window of
// length samples, inclusive of the current one. Indices before length-1, and
// windows containing a placeholder, produce placeholder points so the output
// has the same length and times as the input.
func SMA(points []model.LinePoint, length int) []model.LinePoint {
	out := make([]model.LinePoint, len(points))
	rolling(len(points), length,
		func(i int) (float64, bool) {
			if points[i].Value == nil {
				return 0, false
			}
			return *points[i].Value, true
		},
		func(i int, mean float64, ok bool) {
			if !ok {
				out[i] = model.Placeholder(points[i].Time)
				return
			}
			out[i] = model.Point(points[i].Time, mean)
		})
	return out
}

// SMABars computes the SMA of bar closes.
func SMABars(bars []model.Bar, length int) []model.LinePoint {
	return SMA(Closes(bars), length)
}

// MovingAverage wraps SMA into an indicator series.
func MovingAverage(points []model.LinePoint, length int) model.IndicatorSeries {
	return model.IndicatorSeries{
		Kind:   model.KindSMA,
		Params: model.IndicatorParams{Length: length},
		Points: SMA(points, length),
	}
}

// Closes extracts the closing value of each bar. Whitespace bars become placeholders.
func Closes(bars []model.Bar) []model.LinePoint {
	points := make([]model.LinePoint, len(bars))
	for i, b := range bars {
		if b.Whitespace {
			points[i] = model.Placeholder(b.Time)
			continue
		}
		points[i] = model.Point(b.Time, b.Close)
	}
	return points
}
