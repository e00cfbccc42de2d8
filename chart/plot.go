// ABOUTME: Rasterizes a chart widget: simplification markers underneath, then lines or stacked bands.
// ABOUTME: Uses the palette and marker style of the original solver dashboard.
package chart

import (
	"image/color"
	"math"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/raster"
)

// Palette is the series color cycle. The first column is white, which hides
// the baseline column of stacked charts.
var Palette = []color.Color{
	color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	color.RGBA{R: 0x05, G: 0xfa, B: 0x03, A: 0xff},
	color.RGBA{R: 0xd0, G: 0x33, B: 0x32, A: 0xff},
	color.RGBA{R: 0x4e, G: 0x4e, B: 0xa8, A: 0xff},
	color.RGBA{R: 0x68, G: 0x96, B: 0x96, A: 0xff},
}

// MarkerColor and MarkerWidth style simplification markers on charts.
var MarkerColor = color.RGBA{R: 105, G: 105, B: 185, A: 0xff}

const MarkerWidth = 2

const fillAlpha = 0.8

// Plot draws the visible window onto s. It returns the number of rows drawn.
func (w *Widget) Plot(s raster.Surface, markers []float64) int {
	width, height := s.Width(), s.Height()
	raster.Clear(s, raster.White)
	if width <= 0 || height <= 0 {
		return 0
	}

	ppu := float64(width) / w.window.Span()
	toX := func(x float64) int { return int(math.Round((x - w.window.From) * ppu)) }

	for _, p := range markers {
		if w.window.Contains(p) {
			s.FillRect(toX(p), 0, MarkerWidth, height, MarkerColor)
		}
	}

	rows := w.Visible()
	lo, hi, ok := yBounds(rows, w.series.Stacked)
	if !ok {
		return 0
	}
	toY := func(v float64) int {
		return height - 1 - int(math.Round((v-lo)/(hi-lo)*float64(height-1)))
	}

	if w.series.Stacked {
		w.plotStacked(s, rows, toX, toY)
	} else {
		w.plotLines(s, rows, toX, toY)
	}
	return len(rows)
}

func (w *Widget) color(c int) color.Color {
	return w.colors[c%len(w.colors)]
}

func (w *Widget) plotLines(s raster.Surface, rows []catalog.Row, toX, toY func(float64) int) {
	for c := 0; c < w.series.Columns(); c++ {
		col := w.color(c)
		for i, r := range rows {
			if c >= len(r.Y) || math.IsNaN(r.Y[c]) {
				continue
			}
			x1, y1 := toX(r.X), toY(r.Y[c])
			prev := i - 1
			if prev < 0 || c >= len(rows[prev].Y) || math.IsNaN(rows[prev].Y[c]) {
				s.FillRect(x1, y1, 1, 1, col)
				continue
			}
			line(s, toX(rows[prev].X), toY(rows[prev].Y[c]), x1, y1, col)
		}
	}
}

func (w *Widget) plotStacked(s raster.Surface, rows []catalog.Row, toX, toY func(float64) int) {
	for i, r := range rows {
		x0 := toX(r.X)
		x1 := x0 + 1
		if i+1 < len(rows) {
			x1 = max(toX(rows[i+1].X), x1)
		}
		cum := 0.0
		for c, v := range r.Y {
			if math.IsNaN(v) {
				continue
			}
			yTop, yBot := toY(cum+v), toY(cum)
			if yTop > yBot {
				yTop, yBot = yBot, yTop
			}
			s.FillRect(x0, yTop, x1-x0, yBot-yTop+1, translucent(w.color(c)))
			cum += v
		}
	}
}

// yBounds returns the value range to scale against. Stacked charts use the
// cumulative sums and always include zero.
func yBounds(rows []catalog.Row, stacked bool) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		cum := 0.0
		for _, v := range r.Y {
			if math.IsNaN(v) {
				continue
			}
			if stacked {
				cum += v
				v = cum
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	if stacked {
		lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi, true
}

func translucent(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(fillAlpha * 0xff)}
}

// line rasterizes a segment one pixel at a time.
func line(s raster.Surface, x0, y0, x1, y1 int, c color.Color) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		s.FillRect(x0, y0, 1, 1, c)
		return
	}
	for k := 0; k <= steps; k++ {
		x := x0 + int(math.Round(float64(dx*k)/float64(steps)))
		y := y0 + int(math.Round(float64(dy*k)/float64(steps)))
		s.FillRect(x, y, 1, 1, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
