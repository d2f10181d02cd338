package calculator

import (
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/timeindex"
)

// AlignTo resamples series onto the times of calendar. Each calendar time takes
// the latest series sample at or before it; times before the first sample get
// placeholders.
func AlignTo[T model.Timed](calendar []T, series []model.LinePoint) []model.LinePoint {
	out := make([]model.LinePoint, len(calendar))
	if len(series) == 0 {
		for i, c := range calendar {
			out[i] = model.Placeholder(c.Timestamp())
		}
		return out
	}

	idx := timeindex.New(series)
	for i, c := range calendar {
		t := c.Timestamp()
		j := idx.FindClosestIndex(t, timeindex.Right)
		if series[j].Time > t || series[j].Value == nil {
			out[i] = model.Placeholder(t)
			continue
		}
		out[i] = model.Point(t, *series[j].Value)
	}
	return out
}

// Breadth aligns a market-breadth series onto the price calendar.
func Breadth[T model.Timed](calendar []T, breadth []model.LinePoint) model.IndicatorSeries {
	return model.IndicatorSeries{
		Kind:   model.KindBreadth,
		Points: AlignTo(calendar, breadth),
	}
}
