package validator

import "StockAnalyzerView/internal/model"

// Bars converts validated records into bars. Records without a full OHLC set
// become whitespace bars that keep their place on the time axis.
func Bars(records []model.TimedRecord) []model.Bar {
	bars := make([]model.Bar, len(records))
	for i, r := range records {
		if !r.HasOHLC() {
			bars[i] = model.Bar{Time: r.Time, Volume: r.Volume, Whitespace: true}
			continue
		}
		bars[i] = model.Bar{
			Time:   r.Time,
			Open:   *r.Open,
			High:   *r.High,
			Low:    *r.Low,
			Close:  *r.Close,
			Volume: r.Volume,
		}
	}
	return bars
}

// Points converts validated records into line points, using Value and falling
// back to Close. Records with neither become placeholders.
func Points(records []model.TimedRecord) []model.LinePoint {
	points := make([]model.LinePoint, len(records))
	for i, r := range records {
		switch {
		case r.Value != nil:
			points[i] = model.Point(r.Time, *r.Value)
		case r.Close != nil:
			points[i] = model.Point(r.Time, *r.Close)
		default:
			points[i] = model.Placeholder(r.Time)
		}
	}
	return points
}

// Series is a validated primary series: bars for full results, points for single.
type Series struct {
	Bars   []model.Bar
	Points []model.LinePoint
}

// Len returns the number of samples.
func (s Series) Len() int {
	if s.Bars != nil {
		return len(s.Bars)
	}
	return len(s.Points)
}

// Validate runs every check on a freshly fetched series and converts it.
func Validate(records []model.RawRecord, result model.ResultType) (Series, error) {
	timed, err := EnsureTimestamps(records)
	if err != nil {
		return Series{}, err
	}
	if err := CheckAscending(timed); err != nil {
		return Series{}, err
	}
	if result == model.ResultSingle {
		return Series{Points: Points(timed)}, nil
	}
	if err := CheckUniformVolume(timed); err != nil {
		return Series{}, err
	}
	return Series{Bars: Bars(timed)}, nil
}
