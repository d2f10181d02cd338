package surface

import (
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

var namedColors = map[string]drawing.Color{
	"blue":   {R: 0, G: 0, B: 255, A: 255},
	"orange": {R: 255, G: 165, B: 0, A: 255},
	"green":  {R: 0, G: 128, B: 0, A: 255},
	"pink":   {R: 255, G: 192, B: 203, A: 255},
	"red":    {R: 255, G: 0, B: 0, A: 255},
	"black":  {R: 0, G: 0, B: 0, A: 255},
}

var (
	candleUp   = drawing.Color{R: 38, G: 166, B: 154, A: 255}
	candleDown = drawing.Color{R: 239, G: 83, B: 80, A: 255}
	fallback   = drawing.Color{R: 100, G: 100, B: 100, A: 255}
)

// parseColor understands the CSS forms used by the pane styles: a few color
// names, #rrggbb and rgba(r, g, b, a). Anything else renders grey.
func parseColor(s string) drawing.Color {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") {
		return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
	}
	if strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "rgba("), ")"), ",")
		if len(parts) != 4 {
			return fallback
		}
		var rgb [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || v < 0 || v > 255 {
				return fallback
			}
			rgb[i] = uint8(v)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return fallback
		}
		return drawing.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: uint8(a*255 + 0.5)}
	}
	return fallback
}
