package model

import (
	"fmt"
	"strings"
)

// Mode selects how a chart is fetched and drawn.
type Mode string

const (
	ModeLine        Mode = "line"
	ModeCandlestick Mode = "candlestick"
	ModeIndex       Mode = "index"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLine, ModeCandlestick, ModeIndex:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q (must be line, candlestick or index)", ErrInvalidMode, s)
	}
}

// DataType is the DataSource category.
type DataType string

const (
	DataStock  DataType = "stock"
	DataIndex  DataType = "index"
	DataMarket DataType = "market"
)

// ResultType selects OHLCV records (full) or (time, value) records (single).
type ResultType string

const (
	ResultFull   ResultType = "full"
	ResultSingle ResultType = "single"
)

// BreadthSymbol is the market-breadth series drawn under index charts.
const BreadthSymbol = "MA_50_200"

// Request identifies one chart render cycle.
type Request struct {
	Symbol string `json:"symbol"`
	Mode   Mode   `json:"mode"`
}

// Normalize upper-cases and trims the symbol.
func (r Request) Normalize() Request {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	return r
}

// RequestPolicy resolves user input into a Request. Every entry point that
// accepts a symbol and mode goes through it.
type RequestPolicy struct {
	DefaultSymbol string
	DefaultIndex  string   // falls back to Indices[0]
	Indices       []string // restricts index mode; empty allows any symbol
}

// Resolve parses mode, normalizes symbol and fills per-mode defaults.
func (p RequestPolicy) Resolve(symbol, mode string) (Request, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return Request{}, err
	}
	req := Request{Symbol: symbol, Mode: m}.Normalize()
	if m != ModeIndex {
		if req.Symbol == "" {
			req.Symbol = strings.ToUpper(strings.TrimSpace(p.DefaultSymbol))
		}
		return req, nil
	}
	if req.Symbol == "" {
		req.Symbol = strings.ToUpper(strings.TrimSpace(p.DefaultIndex))
		if req.Symbol == "" && len(p.Indices) > 0 {
			req.Symbol = strings.ToUpper(p.Indices[0])
		}
	}
	if len(p.Indices) == 0 {
		return req, nil
	}
	for _, idx := range p.Indices {
		if strings.EqualFold(idx, req.Symbol) {
			return req, nil
		}
	}
	return Request{}, &UnknownIndexError{Symbol: req.Symbol, Allowed: p.Indices}
}

// PrimaryFetch returns the DataSource parameters of the primary series.
func (r Request) PrimaryFetch() (DataType, ResultType) {
	switch r.Mode {
	case ModeIndex:
		return DataIndex, ResultFull
	case ModeCandlestick:
		return DataStock, ResultFull
	default:
		return DataStock, ResultSingle
	}
}

// NeedsBreadth reports whether a second, parallel breadth fetch is required.
func (r Request) NeedsBreadth() bool { return r.Mode == ModeIndex }

// SeriesType is the visual kind of a series.
type SeriesType string

const (
	SeriesLine        SeriesType = "line"
	SeriesCandlestick SeriesType = "candlestick"
	SeriesHistogram   SeriesType = "histogram"
)

// SeriesOptions is the fixed-shape options record passed to the surface.
type SeriesOptions struct {
	Type             SeriesType `json:"type"`
	Title            string     `json:"title,omitempty"`
	Color            string     `json:"color,omitempty"`
	LineWidth        float64    `json:"line_width,omitempty"`
	PriceScaleID     string     `json:"price_scale_id,omitempty"`
	PriceFormat      string     `json:"price_format,omitempty"`
	LastValueVisible bool       `json:"last_value_visible"`
	PriceLineVisible bool       `json:"price_line_visible"`
}

// HistogramPoint is one colored histogram column.
type HistogramPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

func (h HistogramPoint) Timestamp() int64 { return h.Time }

// Series is one drawable series. Exactly one payload matches Options.Type.
type Series struct {
	Kind      IndicatorKind    `json:"kind,omitempty"`
	Options   SeriesOptions    `json:"options"`
	Bars      []Bar            `json:"bars,omitempty"`
	Points    []LinePoint      `json:"points,omitempty"`
	Histogram []HistogramPoint `json:"histogram,omitempty"`
}

// Len returns the number of data entries in the series payload.
func (s Series) Len() int {
	switch s.Options.Type {
	case SeriesCandlestick:
		if s.Bars != nil {
			return len(s.Bars)
		}
		return len(s.Points)
	case SeriesHistogram:
		return len(s.Histogram)
	default:
		if s.Points != nil {
			return len(s.Points)
		}
		return len(s.Bars)
	}
}

// Pane is an independently price-scaled region sharing the time axis.
type Pane struct {
	ID         int      `json:"id"`
	Height     int      `json:"height"`
	PriceScale string   `json:"price_scale"`
	Series     []Series `json:"series"`
}
