package calculator

import "StockAnalyzerView/internal/model"

// DefaultWeight is the weight applied to the close when none is given.
const DefaultWeight = 2

// WeightedCloseOptions configures WeightedClose.
type WeightedCloseOptions struct {
	// Weight applied to the close. Zero means DefaultWeight.
	Weight float64
	// Offset > 0 leaves the first Offset entries as placeholders,
	// Offset < 0 leaves the last -Offset entries as placeholders.
	Offset int
}

// WeightedClose computes (close*weight + high + low) / (weight + 2) per bar.
// Whitespace bars always produce placeholders.
func WeightedClose(bars []model.Bar, opts WeightedCloseOptions) []model.LinePoint {
	if len(bars) == 0 {
		return []model.LinePoint{}
	}
	weight := opts.Weight
	if weight == 0 {
		weight = DefaultWeight
	}

	start, end := 0, len(bars)
	if opts.Offset > 0 {
		start = min(opts.Offset, len(bars))
	} else if opts.Offset < 0 {
		end = max(len(bars)+opts.Offset, 0)
	}

	out := make([]model.LinePoint, len(bars))
	for i, b := range bars {
		if i < start || i >= end || b.Whitespace {
			out[i] = model.Placeholder(b.Time)
			continue
		}
		out[i] = model.Point(b.Time, (b.Close*weight+b.High+b.Low)/(weight+2))
	}
	return out
}

// WeightedCloseSeries wraps WeightedClose into an indicator series.
func WeightedCloseSeries(bars []model.Bar, opts WeightedCloseOptions) model.IndicatorSeries {
	weight := opts.Weight
	if weight == 0 {
		weight = DefaultWeight
	}
	return model.IndicatorSeries{
		Kind:   model.KindWeightedClose,
		Params: model.IndicatorParams{Weight: weight, Offset: opts.Offset},
		Points: WeightedClose(bars, opts),
	}
}
