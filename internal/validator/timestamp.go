// Package validator guards freshly fetched series before any indicator or pane
// computation runs on them.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"StockAnalyzerView/internal/model"
)

// EnsureTimestamps checks that every record carries a numeric, integral UTC
// timestamp in seconds and returns the records typed accordingly. The input is
// never modified.
func EnsureTimestamps(records []model.RawRecord) ([]model.TimedRecord, error) {
	out := make([]model.TimedRecord, len(records))
	for i, r := range records {
		ts, ok := numericTime(r.Time)
		if !ok {
			return nil, &model.InvalidTimestampError{Index: i, Value: r.Time}
		}
		out[i] = model.TimedRecord{Time: ts, RawRecord: r}
	}
	return out, nil
}

func numericTime(v any) (int64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// CheckAscending verifies that times are strictly increasing.
func CheckAscending[T model.Timed](series []T) error {
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1].Timestamp(), series[i].Timestamp()
		if cur <= prev {
			return &model.UnorderedSeriesError{Index: i, Prev: prev, Time: cur}
		}
	}
	return nil
}

// ErrMixedVolume is returned when only some records of a series carry volume.
var ErrMixedVolume = errors.New("volume must be present on all records or on none")

// CheckUniformVolume verifies that volume presence is the same across the series.
func CheckUniformVolume(records []model.TimedRecord) error {
	if len(records) == 0 {
		return nil
	}
	want := records[0].Volume != nil
	for i, r := range records {
		if (r.Volume != nil) != want {
			return fmt.Errorf("record %d: %w", i, ErrMixedVolume)
		}
	}
	return nil
}
