package model

// IndicatorKind identifies a derived series.
type IndicatorKind string

const (
	KindSMA           IndicatorKind = "SMA"
	KindWeightedClose IndicatorKind = "WEIGHTED_CLOSE"
	KindVolumeSMA     IndicatorKind = "VOLUME_SMA"
	KindBreadth       IndicatorKind = "BREADTH"
)

// IndicatorParams holds the parameters an indicator was computed with.
type IndicatorParams struct {
	Length int     `json:"length,omitempty"`
	Weight float64 `json:"weight,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// IndicatorSeries is the output of one indicator computation.
// Points may contain leading or trailing placeholders.
type IndicatorSeries struct {
	Kind   IndicatorKind   `json:"kind"`
	Params IndicatorParams `json:"params"`
	Points []LinePoint     `json:"points"`
}

// Valued returns the number of non-placeholder points.
func (s IndicatorSeries) Valued() int {
	n := 0
	for _, p := range s.Points {
		if !p.IsPlaceholder() {
			n++
		}
	}
	return n
}
