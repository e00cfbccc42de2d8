// ABOUTME: Trailing moving average applied to chart rows for the shared roll period.
package chart

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/2389-research/syncview/catalog"
)

// Smooth averages every column over the last n rows (the row itself and up
// to n-1 predecessors). NaN values are skipped; a window with no values
// stays NaN. n <= 1 returns the rows unchanged.
func Smooth(rows []catalog.Row, n int) []catalog.Row {
	if n <= 1 || len(rows) == 0 {
		return rows
	}
	out := make([]catalog.Row, len(rows))
	window := make([]float64, 0, n)
	for i, r := range rows {
		y := make([]float64, len(r.Y))
		for c := range r.Y {
			window = window[:0]
			for j := max(0, i-n+1); j <= i; j++ {
				if c < len(rows[j].Y) && !math.IsNaN(rows[j].Y[c]) {
					window = append(window, rows[j].Y[c])
				}
			}
			if len(window) == 0 {
				y[c] = math.NaN()
				continue
			}
			y[c] = floats.Sum(window) / float64(len(window))
		}
		out[i] = catalog.Row{X: r.X, Y: y}
	}
	return out
}
