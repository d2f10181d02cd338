package model

// Timed is implemented by every sample that carries a numeric UTC timestamp.
type Timed interface {
	Timestamp() int64
}

// Bar represents a single OHLC(V) sample. Time is seconds since the Unix epoch (UTC).
type Bar struct {
	Time   int64    `json:"time"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume,omitempty"`

	// Whitespace marks a time-only bar with no OHLC values.
	Whitespace bool `json:"-"`
}

func (b Bar) Timestamp() int64 { return b.Time }

// HasVolume reports whether the bar carries a volume value.
func (b Bar) HasVolume() bool { return b.Volume != nil }

// LinePoint is a single (time, value) sample. A nil Value is a placeholder point.
type LinePoint struct {
	Time  int64    `json:"time"`
	Value *float64 `json:"value,omitempty"`
}

func (p LinePoint) Timestamp() int64 { return p.Time }

// IsPlaceholder reports whether the point only carries a time.
func (p LinePoint) IsPlaceholder() bool { return p.Value == nil }

// Placeholder returns a time-only point.
func Placeholder(t int64) LinePoint { return LinePoint{Time: t} }

// Point returns a valued point.
func Point(t int64, v float64) LinePoint { return LinePoint{Time: t, Value: &v} }

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 { return &v }

// RawRecord is one element of a DataSource response before validation.
// Time is left untyped so malformed timestamps can be detected and reported.
type RawRecord struct {
	Time   any      `json:"time"`
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Close  *float64 `json:"close,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
	Value  *float64 `json:"value,omitempty"`
}

// TimedRecord is a RawRecord whose timestamp has been validated.
type TimedRecord struct {
	Time int64
	RawRecord
}

func (r TimedRecord) Timestamp() int64 { return r.Time }

// HasOHLC reports whether open, high, low and close are all present.
func (r RawRecord) HasOHLC() bool {
	return r.Open != nil && r.High != nil && r.Low != nil && r.Close != nil
}
