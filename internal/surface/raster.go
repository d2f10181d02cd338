package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"StockAnalyzerView/internal/model"
)

const minPrimaryHeight = 100

// Raster is a Memory surface that can render its panes to a PNG, one go-chart
// canvas per pane stacked vertically on a shared time axis.
type Raster struct {
	*Memory
}

func NewRaster(width, height int) *Raster {
	return &Raster{Memory: NewMemory(width, height)}
}

// RasterFactory adapts NewRaster to Factory.
func RasterFactory(width, height int) Surface { return NewRaster(width, height) }

// RenderPNG draws the current panes into w.
func (r *Raster) RenderPNG(w io.Writer) error {
	if r.Disposed() {
		return ErrDisposed
	}
	panes := r.Panes()
	width, height := r.Size()

	heights := paneHeights(panes, height)
	xr := timeRange(panes)

	total := 0
	for _, h := range heights {
		total += h
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, total))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	y := 0
	for i, p := range panes {
		img, err := renderPane(p, width, heights[i], xr)
		if err != nil {
			return fmt.Errorf("render pane %d: %w", p.ID, err)
		}
		if img != nil {
			draw.Draw(canvas, image.Rect(0, y, width, y+heights[i]), img, img.Bounds().Min, draw.Over)
		}
		y += heights[i]
	}
	return png.Encode(w, canvas)
}

// paneHeights gives every fixed-height pane its height and pane 0 the rest.
func paneHeights(panes []model.Pane, total int) []int {
	out := make([]int, len(panes))
	fixed := 0
	for i, p := range panes {
		if i > 0 && p.Height > 0 {
			out[i] = p.Height
			fixed += p.Height
		}
	}
	for i, p := range panes {
		if i == 0 || p.Height <= 0 {
			out[i] = total - fixed
			if out[i] < minPrimaryHeight {
				out[i] = minPrimaryHeight
			}
		}
	}
	return out
}

func unix(t int64) time.Time { return time.Unix(t, 0).UTC() }

// timeRange spans every timestamp in every pane so the panes line up.
func timeRange(panes []model.Pane) *chart.ContinuousRange {
	lo, hi := int64(math.MaxInt64), int64(math.MinInt64)
	see := func(t int64) {
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}
	for _, p := range panes {
		for _, s := range p.Series {
			for _, b := range s.Bars {
				see(b.Time)
			}
			for _, pt := range s.Points {
				see(pt.Time)
			}
			for _, h := range s.Histogram {
				see(h.Time)
			}
		}
	}
	if lo > hi {
		return nil
	}
	if lo == hi {
		lo, hi = lo-86400, hi+86400
	}
	return &chart.ContinuousRange{Min: chart.TimeToFloat64(unix(lo)), Max: chart.TimeToFloat64(unix(hi))}
}

type bounds struct{ lo, hi float64 }

func (b *bounds) see(v float64) {
	b.lo = math.Min(b.lo, v)
	b.hi = math.Max(b.hi, v)
}

func (b bounds) empty() bool { return b.lo > b.hi }

func renderPane(p model.Pane, width, height int, xr *chart.ContinuousRange) (image.Image, error) {
	if xr == nil {
		return nil, nil
	}
	yb := bounds{lo: math.Inf(1), hi: math.Inf(-1)}
	var series []chart.Series
	for _, s := range p.Series {
		series = append(series, toChartSeries(s, &yb)...)
	}
	if len(series) == 0 || yb.empty() {
		return nil, nil
	}
	if yb.lo == yb.hi {
		yb.lo, yb.hi = yb.lo-1, yb.hi+1
	}

	c := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 10, Left: 10, Right: 10, Bottom: 10}},
		XAxis: chart.XAxis{
			Range:          xr,
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: yb.lo, Max: yb.hi},
		},
		Series: series,
	}
	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// toChartSeries converts one pane series. Line placeholders split the line
// into segments; segments shorter than two points are not drawable and are
// dropped.
func toChartSeries(s model.Series, yb *bounds) []chart.Series {
	style := chart.Style{
		StrokeColor: parseColor(s.Options.Color),
		StrokeWidth: s.Options.LineWidth,
	}
	if style.StrokeWidth == 0 {
		style.StrokeWidth = 2
	}

	switch s.Options.Type {
	case model.SeriesCandlestick:
		cs := candleSeries{name: s.Options.Title}
		for _, b := range s.Bars {
			if b.Whitespace {
				continue
			}
			cs.bars = append(cs.bars, b)
			yb.see(b.Low)
			yb.see(b.High)
		}
		if len(cs.bars) == 0 {
			return nil
		}
		return []chart.Series{cs}

	case model.SeriesHistogram:
		if len(s.Histogram) == 0 {
			return nil
		}
		yb.see(0)
		for _, h := range s.Histogram {
			yb.see(h.Value)
		}
		return []chart.Series{histogramSeries{name: s.Options.Title, points: s.Histogram}}

	default:
		var out []chart.Series
		var xs []time.Time
		var ys []float64
		flush := func() {
			if len(xs) >= 2 {
				out = append(out, chart.TimeSeries{Name: s.Options.Title, Style: style, XValues: xs, YValues: ys})
				for _, v := range ys {
					yb.see(v)
				}
			}
			xs, ys = nil, nil
		}
		for _, p := range s.Points {
			if p.IsPlaceholder() {
				flush()
				continue
			}
			xs = append(xs, unix(p.Time))
			ys = append(ys, *p.Value)
		}
		flush()
		return out
	}
}

func halfWidth(box chart.Box, n int) int {
	if n <= 0 {
		return 1
	}
	hw := box.Width() * 35 / (100 * n)
	if hw < 1 {
		hw = 1
	}
	return hw
}

func fillRect(r chart.Renderer, x0, y0, x1, y1 int) {
	if y0 == y1 {
		y1++
	}
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.FillStroke()
}

type candleSeries struct {
	name string
	bars []model.Bar
}

func (cs candleSeries) GetName() string           { return cs.name }
func (cs candleSeries) GetStyle() chart.Style     { return chart.Style{StrokeWidth: 1} }
func (cs candleSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (cs candleSeries) Validate() error           { return nil }
func (cs candleSeries) Len() int                  { return len(cs.bars) }
func (cs candleSeries) GetBoundedValues(i int) (float64, float64, float64) {
	b := cs.bars[i]
	return chart.TimeToFloat64(unix(b.Time)), b.Low, b.High
}

func (cs candleSeries) Render(r chart.Renderer, box chart.Box, xr, yr chart.Range, _ chart.Style) {
	hw := halfWidth(box, len(cs.bars))
	for _, b := range cs.bars {
		c := candleDown
		if b.Close >= b.Open {
			c = candleUp
		}
		r.SetStrokeColor(c)
		r.SetFillColor(c)
		r.SetStrokeWidth(1)

		x := box.Left + xr.Translate(chart.TimeToFloat64(unix(b.Time)))
		r.MoveTo(x, box.Bottom-yr.Translate(b.High))
		r.LineTo(x, box.Bottom-yr.Translate(b.Low))
		r.Stroke()

		top := box.Bottom - yr.Translate(math.Max(b.Open, b.Close))
		bottom := box.Bottom - yr.Translate(math.Min(b.Open, b.Close))
		fillRect(r, x-hw, top, x+hw, bottom)
	}
}

type histogramSeries struct {
	name   string
	points []model.HistogramPoint
}

func (hs histogramSeries) GetName() string           { return hs.name }
func (hs histogramSeries) GetStyle() chart.Style     { return chart.Style{StrokeWidth: 1} }
func (hs histogramSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (hs histogramSeries) Validate() error           { return nil }
func (hs histogramSeries) Len() int                  { return len(hs.points) }
func (hs histogramSeries) GetBoundedValues(i int) (float64, float64, float64) {
	p := hs.points[i]
	return chart.TimeToFloat64(unix(p.Time)), 0, p.Value
}

func (hs histogramSeries) Render(r chart.Renderer, box chart.Box, xr, yr chart.Range, _ chart.Style) {
	hw := halfWidth(box, len(hs.points))
	base := box.Bottom - yr.Translate(0)
	for _, p := range hs.points {
		c := parseColor(p.Color)
		if p.Color == "" {
			c = chart.ColorBlue
		}
		r.SetStrokeColor(c)
		r.SetFillColor(c)
		r.SetStrokeWidth(1)
		x := box.Left + xr.Translate(chart.TimeToFloat64(unix(p.Time)))
		fillRect(r, x-hw, box.Bottom-yr.Translate(p.Value), x+hw, base)
	}
}
