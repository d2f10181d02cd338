package calculator

import (
	"math"

	"StockAnalyzerView/internal/model"
)

// TradingYear is the number of daily bars in a 52-week window.
const TradingYear = 252

// PriceRange is the trailing high/low of a series and where its last value
// sits in it.
type PriceRange struct {
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Last     float64 `json:"last"`
	Position float64 `json:"position"` // 0 at Low, 1 at High
}

// TrailingRange scans the most recent window bars that carry prices and
// returns their high and low. ok is false when no bar carries prices.
func TrailingRange(bars []model.Bar, window int) (r PriceRange, ok bool) {
	r.High, r.Low = math.Inf(-1), math.Inf(1)
	seen := 0
	for i := len(bars) - 1; i >= 0 && seen < window; i-- {
		b := bars[i]
		if b.Whitespace {
			continue
		}
		if seen == 0 {
			r.Last = b.Close
		}
		r.High = math.Max(r.High, b.High)
		r.Low = math.Min(r.Low, b.Low)
		seen++
	}
	if seen == 0 {
		return PriceRange{}, false
	}
	r.Position = rangePosition(r.Last, r.High, r.Low)
	return r, true
}

// TrailingRangePoints is TrailingRange for (time, value) series. Placeholder
// points are skipped.
func TrailingRangePoints(points []model.LinePoint, window int) (r PriceRange, ok bool) {
	r.High, r.Low = math.Inf(-1), math.Inf(1)
	seen := 0
	for i := len(points) - 1; i >= 0 && seen < window; i-- {
		if points[i].IsPlaceholder() {
			continue
		}
		v := *points[i].Value
		if seen == 0 {
			r.Last = v
		}
		r.High = math.Max(r.High, v)
		r.Low = math.Min(r.Low, v)
		seen++
	}
	if seen == 0 {
		return PriceRange{}, false
	}
	r.Position = rangePosition(r.Last, r.High, r.Low)
	return r, true
}

// rangePosition returns where current sits within [low, high], clamped to 0..1.
func rangePosition(current, high, low float64) float64 {
	if high == low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	return math.Max(0, math.Min(1, pos))
}
