// ABOUTME: Tests for heatmap band layout, per-block normalization, tiling, and markers.
// ABOUTME: Draws onto a recording surface and inspects the FillRect calls.
package heatmap

import (
	"errors"
	"testing"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/raster"
	"github.com/2389-research/syncview/zoom"
)

func cells(rec *raster.Recorder, markerColor raster.Rect) []raster.Rect {
	var out []raster.Rect
	for _, r := range rec.Rects[1:] {
		if r.Color == markerColor.Color {
			continue
		}
		out = append(out, r)
	}
	return out
}

func TestRenderRaggedBlocksNormalizePerBlock(t *testing.T) {
	blocks := []catalog.HeatmapBlock{
		{ConflStart: 0, ConflEnd: 1000, Darkness: []float64{5, 0, 2}},
		{ConflStart: 1000, ConflEnd: 2000, Darkness: []float64{0, 0, 9}},
	}
	r := NewRenderer(Options{NoiseThreshold: 1})
	rec := raster.NewRecorder(200, 30)

	st, err := r.Render(rec, blocks, nil, zoom.ViewRange{From: 0, To: 2000})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if st.Bands != 3 {
		t.Fatalf("expected 3 bands, got %d", st.Bands)
	}

	if rec.Rects[0] != (raster.Rect{X: 0, Y: 0, W: 200, H: 30, Color: raster.White}) {
		t.Errorf("expected the surface cleared first, got %+v", rec.Rects[0])
	}

	want := []raster.Rect{
		// block 1, band 0: its own maximum, fully dark, at the bottom
		{X: 0, Y: 20, W: 100, H: 10, Color: raster.Gray(0)},
		// block 1, band 2: 2/5 of the maximum
		{X: 0, Y: 0, W: 100, H: 10, Color: raster.Gray(153)},
		// block 2, band 2
		{X: 100, Y: 0, W: 100, H: 10, Color: raster.Gray(0)},
	}
	got := rec.Rects[1:]
	if len(got) != len(want) {
		t.Fatalf("expected %d cells, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if st.Cells != 3 {
		t.Errorf("expected 3 cells, got %d", st.Cells)
	}
}

func TestRenderNoBandsAboveThreshold(t *testing.T) {
	blocks := []catalog.HeatmapBlock{{ConflStart: 0, ConflEnd: 10, Darkness: []float64{3, 20, 1}}}
	rec := raster.NewRecorder(50, 10)

	st, err := NewRenderer(DefaultOptions()).Render(rec, blocks, nil, zoom.ViewRange{From: 0, To: 10})
	if err != nil {
		t.Fatal(err)
	}
	if st.Bands != 0 || st.Cells != 0 {
		t.Errorf("expected nothing drawn at the default threshold, got %+v", st)
	}
	if len(rec.Rects) != 1 {
		t.Errorf("expected only the clear, got %d calls", len(rec.Rects))
	}
}

func TestRenderBandsTileHeight(t *testing.T) {
	for _, height := range []int{7, 10, 31, 100} {
		for bands := 1; bands <= 9; bands++ {
			covered := 0
			prev := 0
			for k := 0; k < bands; k++ {
				lo, hi := bandEdge(k, bands, height), bandEdge(k+1, bands, height)
				if lo != prev {
					t.Fatalf("height %d bands %d: gap or overlap at band %d", height, bands, k)
				}
				covered += hi - lo
				prev = hi
			}
			if covered != height {
				t.Errorf("height %d bands %d: covered %d", height, bands, covered)
			}
		}
	}
}

func TestRenderBlocksTileWidth(t *testing.T) {
	blocks := []catalog.HeatmapBlock{
		{ConflStart: 0, ConflEnd: 333, Darkness: []float64{50}},
		{ConflStart: 333, ConflEnd: 667, Darkness: []float64{50}},
		{ConflStart: 667, ConflEnd: 1001, Darkness: []float64{50}},
		{ConflStart: 1001, ConflEnd: 1500, Darkness: []float64{50}},
	}
	ranges := []zoom.ViewRange{
		{From: 0, To: 1500},
		{From: 100, To: 900},
		{From: 333, To: 334},
		{From: 0.5, To: 1499.5},
	}
	r := NewRenderer(DefaultOptions())
	for _, width := range []int{1, 97, 415, 1024} {
		for _, vr := range ranges {
			rec := raster.NewRecorder(width, 10)
			if _, err := r.Render(rec, blocks, nil, vr); err != nil {
				t.Fatal(err)
			}
			x := 0
			for _, c := range rec.Rects[1:] {
				if c.X != x {
					t.Fatalf("width %d range %s: cell starts at %d, expected %d", width, vr, c.X, x)
				}
				if c.W <= 0 {
					t.Fatalf("width %d range %s: empty cell drawn", width, vr)
				}
				x += c.W
			}
			if x > width {
				t.Errorf("width %d range %s: cells overflow to %d", width, vr, x)
			}
			if vr.To <= 1500 && x != width {
				t.Errorf("width %d range %s: expected cells to reach %d, got %d", width, vr, width, x)
			}
		}
	}
}

func TestRenderNormalizesPerBlock(t *testing.T) {
	blocks := []catalog.HeatmapBlock{
		{ConflStart: 0, ConflEnd: 1, Darkness: []float64{100, 50}},
		{ConflStart: 1, ConflEnd: 2, Darkness: []float64{1000, 500}},
	}
	rec := raster.NewRecorder(2, 2)
	if _, err := NewRenderer(DefaultOptions()).Render(rec, blocks, nil, zoom.ViewRange{From: 0, To: 2}); err != nil {
		t.Fatal(err)
	}
	got := rec.Rects[1:]
	if len(got) != 4 {
		t.Fatalf("expected 4 cells, got %+v", got)
	}
	// Same proportions, same grays, whatever the absolute counts.
	if got[0].Color != got[2].Color || got[1].Color != got[3].Color {
		t.Errorf("expected per-block normalization, got %+v", got)
	}
	if got[1].Color != raster.Gray(127) {
		t.Errorf("expected half of maximum to map to 127, got %v", got[1].Color)
	}
}

func TestRenderSkipsBlocksOutsideRange(t *testing.T) {
	blocks := []catalog.HeatmapBlock{
		{ConflStart: 0, ConflEnd: 10, Darkness: []float64{0, 0, 0, 99}},
		{ConflStart: 10, ConflEnd: 20, Darkness: []float64{99}},
		{ConflStart: 20, ConflEnd: 30, Darkness: []float64{0, 0, 0, 0, 0, 99}},
	}
	rec := raster.NewRecorder(10, 12)
	st, err := NewRenderer(DefaultOptions()).Render(rec, blocks, nil, zoom.ViewRange{From: 12, To: 18})
	if err != nil {
		t.Fatal(err)
	}
	if st.Bands != 1 || st.Cells != 1 {
		t.Errorf("expected only the middle block counted, got %+v", st)
	}
}

func TestRenderMarkers(t *testing.T) {
	r := NewRenderer(Options{NoiseThreshold: 0, MarkerWidth: 2})
	rec := raster.NewRecorder(100, 8)
	points := []float64{0, 25, 50, 100}

	st, err := r.Render(rec, nil, points, zoom.ViewRange{From: 0, To: 100})
	if err != nil {
		t.Fatal(err)
	}
	if st.Markers != 2 {
		t.Fatalf("expected the endpoints excluded, got %d markers", st.Markers)
	}
	want := raster.Rect{X: 25, Y: 0, W: 2, H: 8, Color: DefaultMarkerColor}
	if rec.Rects[1] != want {
		t.Errorf("expected %+v, got %+v", want, rec.Rects[1])
	}
}

func TestRenderMarkerNearRightEdgeStaysVisible(t *testing.T) {
	r := NewRenderer(Options{MarkerWidth: 1})
	rec := raster.NewRecorder(100, 10)

	st, err := r.Render(rec, nil, []float64{99.6}, zoom.ViewRange{From: 0, To: 100})
	if err != nil {
		t.Fatal(err)
	}
	if st.Markers != 1 {
		t.Fatalf("expected 1 marker, got %d", st.Markers)
	}
	want := raster.Rect{X: 99, Y: 0, W: 1, H: 10, Color: DefaultMarkerColor}
	if got := rec.Rects[len(rec.Rects)-1]; got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestRenderMarkersDrawnLast(t *testing.T) {
	blocks := []catalog.HeatmapBlock{{ConflStart: 0, ConflEnd: 10, Darkness: []float64{50}}}
	rec := raster.NewRecorder(10, 4)
	if _, err := NewRenderer(DefaultOptions()).Render(rec, blocks, []float64{5}, zoom.ViewRange{From: 0, To: 10}); err != nil {
		t.Fatal(err)
	}
	if last := rec.Rects[len(rec.Rects)-1]; last.Color != DefaultMarkerColor {
		t.Errorf("expected the marker on top, got %+v", last)
	}
	if n := len(cells(rec, raster.Rect{Color: DefaultMarkerColor})); n != 1 {
		t.Errorf("expected one cell under the marker, got %d", n)
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	if _, err := r.Render(nil, nil, nil, zoom.ViewRange{From: 0, To: 1}); !errors.Is(err, ErrMissingSurface) {
		t.Errorf("expected ErrMissingSurface, got %v", err)
	}
	if _, err := r.Render(raster.NewRecorder(1, 1), nil, nil, zoom.ViewRange{From: 1, To: 1}); !errors.Is(err, zoom.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}
