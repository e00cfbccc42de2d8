// ABOUTME: CellSurface is a raster.Surface drawn with half-block characters, two pixels per terminal cell.
// ABOUTME: Guarded by its own lock so renders from engine calls and View reads never race.
package tui

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const halfBlock = "▀"

// CellSurface holds cols x rows*2 pixels.
type CellSurface struct {
	mu  sync.RWMutex
	w   int
	h   int
	pix []color.RGBA
}

// NewCellSurface returns a white surface covering cols x rows terminal cells.
func NewCellSurface(cols, rows int) *CellSurface {
	s := &CellSurface{}
	s.Resize(cols, rows)
	return s
}

// Resize reallocates the surface, cleared to white.
func (s *CellSurface) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w, s.h = max(cols, 0), max(rows, 0)*2
	s.pix = make([]color.RGBA, s.w*s.h)
	for i := range s.pix {
		s.pix[i] = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
}

func (s *CellSurface) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w
}

func (s *CellSurface) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h
}

// FillRect paints a clipped rectangle, blending translucent colors over
// what is already there.
func (s *CellSurface) FillRect(x, y, w, h int, c color.Color) {
	src := color.NRGBAModel.Convert(c).(color.NRGBA)
	s.mu.Lock()
	defer s.mu.Unlock()
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, s.w), min(y+h, s.h)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			i := py*s.w + px
			s.pix[i] = blend(s.pix[i], src)
		}
	}
}

func blend(dst color.RGBA, src color.NRGBA) color.RGBA {
	if src.A == 0xff {
		return color.RGBA{R: src.R, G: src.G, B: src.B, A: 0xff}
	}
	a := uint32(src.A)
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(0xff-a)) / 0xff)
	}
	return color.RGBA{R: mix(src.R, dst.R), G: mix(src.G, dst.G), B: mix(src.B, dst.B), A: 0xff}
}

// At returns one pixel.
func (s *CellSurface) At(x, y int) color.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pix[y*s.w+x]
}

// Render draws the surface as rows of half blocks: the upper pixel is the
// foreground, the lower one the background. Runs of identical cells share
// one style.
func (s *CellSurface) Render() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, 0, s.h/2)
	for y := 0; y+1 < s.h; y += 2 {
		var b strings.Builder
		run := 0
		var top, bottom color.RGBA
		flush := func() {
			if run == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top))).
				Background(lipgloss.Color(hex(bottom)))
			b.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			run = 0
		}
		for x := 0; x < s.w; x++ {
			t, u := s.pix[y*s.w+x], s.pix[(y+1)*s.w+x]
			if run > 0 && (t != top || u != bottom) {
				flush()
			}
			top, bottom = t, u
			run++
		}
		flush()
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
