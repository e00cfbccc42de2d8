// ABOUTME: Tests for CellSurface: clipping, translucent blending, resizing, and half-block rendering.
package tui

import (
	"image/color"
	"strings"
	"testing"
)

func TestCellSurfaceSize(t *testing.T) {
	s := NewCellSurface(4, 3)
	if s.Width() != 4 || s.Height() != 6 {
		t.Fatalf("size = %dx%d, want 4x6", s.Width(), s.Height())
	}
	s.Resize(-1, 2)
	if s.Width() != 0 || s.Height() != 4 {
		t.Fatalf("resized = %dx%d, want 0x4", s.Width(), s.Height())
	}
}

func TestCellSurfaceFillRectClips(t *testing.T) {
	s := NewCellSurface(2, 1)
	red := color.RGBA{R: 0xff, A: 0xff}
	s.FillRect(-5, -5, 6, 6, red)

	if got := s.At(0, 0); got != red {
		t.Errorf("At(0,0) = %v, want red", got)
	}
	if got := s.At(1, 1); got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("At(1,1) = %v, want untouched white", got)
	}
}

func TestCellSurfaceBlendsTranslucentFill(t *testing.T) {
	s := NewCellSurface(1, 1)
	s.FillRect(0, 0, 1, 1, color.NRGBA{A: 128})

	got := s.At(0, 0)
	if got.R != 127 || got.G != 127 || got.B != 127 || got.A != 0xff {
		t.Errorf("blended = %v, want opaque gray 127", got)
	}
}

func TestCellSurfaceRender(t *testing.T) {
	s := NewCellSurface(3, 2)
	s.FillRect(0, 0, 1, 4, color.Black)

	out := s.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for i, l := range lines {
		if n := strings.Count(l, halfBlock); n != 3 {
			t.Errorf("line %d has %d half blocks, want 3", i, n)
		}
	}
}

func TestHex(t *testing.T) {
	if got := hex(color.RGBA{R: 0x69, G: 0x69, B: 0xb9}); got != "#6969b9" {
		t.Errorf("hex = %q", got)
	}
}
