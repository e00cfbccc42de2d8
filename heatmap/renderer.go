// ABOUTME: DensityHeatmapRenderer paints per-block clause-size distributions as gray bands on a raster surface.
// ABOUTME: Each block is normalized against its own maximum; simplification points become vertical markers.
package heatmap

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/raster"
	"github.com/2389-research/syncview/zoom"
)

// ErrMissingSurface is returned when a render is requested without a surface.
var ErrMissingSurface = errors.New("heatmap has no surface")

// DefaultNoiseThreshold hides buckets whose count does not exceed it.
const DefaultNoiseThreshold = 20

// DefaultMarkerColor is the marker color of the original dashboard.
var DefaultMarkerColor = color.RGBA{R: 0x69, G: 0x69, B: 0xb9, A: 0xff}

// Options tunes a Renderer.
type Options struct {
	NoiseThreshold float64
	MarkerColor    color.Color
	MarkerWidth    int
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		NoiseThreshold: DefaultNoiseThreshold,
		MarkerColor:    DefaultMarkerColor,
		MarkerWidth:    1,
	}
}

// Stats summarizes one render.
type Stats struct {
	Bands   int `json:"bands"`
	Cells   int `json:"cells"`
	Markers int `json:"markers"`
}

// Renderer is stateless apart from its options and safe to share.
type Renderer struct {
	opts Options
}

// NewRenderer fills unset marker options with defaults. A zero noise
// threshold is kept as given.
func NewRenderer(opts Options) *Renderer {
	if opts.MarkerColor == nil {
		opts.MarkerColor = DefaultMarkerColor
	}
	if opts.MarkerWidth < 1 {
		opts.MarkerWidth = 1
	}
	return &Renderer{opts: opts}
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render clears s to white and draws the blocks intersecting vr, then the
// markers of the points strictly inside vr.
func (r *Renderer) Render(s raster.Surface, blocks []catalog.HeatmapBlock, points []float64, vr zoom.ViewRange) (Stats, error) {
	var st Stats
	if s == nil {
		return st, ErrMissingSurface
	}
	if err := vr.Validate(); err != nil {
		return st, fmt.Errorf("render heatmap: %w", err)
	}

	width, height := s.Width(), s.Height()
	raster.Clear(s, raster.White)

	visible := r.visibleBlocks(blocks, vr)
	st.Bands = r.bandCount(visible)

	ppu := float64(width) / vr.Span()
	if st.Bands > 0 && height > 0 {
		xStart := 0
		for _, b := range visible {
			xEnd := int(math.Round(clamp((b.ConflEnd-vr.From)*ppu, 0, float64(width))))
			st.Cells += r.drawBlock(s, b.Darkness, st.Bands, xStart, xEnd, height)
			xStart = xEnd
		}
	}

	for _, p := range points {
		if !vr.Contains(p) {
			continue
		}
		x := int(math.Round((p - vr.From) * ppu))
		x = max(0, min(x, width-r.opts.MarkerWidth))
		s.FillRect(x, 0, r.opts.MarkerWidth, height, r.opts.MarkerColor)
		st.Markers++
	}
	return st, nil
}

// visibleBlocks returns the blocks with ConflEnd >= from and ConflStart <= to.
// Blocks are ordered, so the scan stops at the first one starting past to.
func (r *Renderer) visibleBlocks(blocks []catalog.HeatmapBlock, vr zoom.ViewRange) []catalog.HeatmapBlock {
	var out []catalog.HeatmapBlock
	for _, b := range blocks {
		if b.ConflStart > vr.To {
			break
		}
		if b.ConflEnd >= vr.From {
			out = append(out, b)
		}
	}
	return out
}

// bandCount is one more than the highest bucket index that clears the noise
// threshold in any visible block.
func (r *Renderer) bandCount(visible []catalog.HeatmapBlock) int {
	bands := 0
	for _, b := range visible {
		for i := len(b.Darkness) - 1; i >= bands; i-- {
			if b.Darkness[i] > r.opts.NoiseThreshold {
				bands = i + 1
				break
			}
		}
	}
	return bands
}

func (r *Renderer) drawBlock(s raster.Surface, darkness []float64, bands, xStart, xEnd, height int) int {
	if xEnd <= xStart || len(darkness) == 0 {
		return 0
	}
	localMax := floats.Max(darkness)
	if localMax <= 0 {
		return 0
	}
	cells := 0
	for i := 0; i < len(darkness) && i < bands; i++ {
		if darkness[i] <= r.opts.NoiseThreshold {
			continue
		}
		lo, hi := bandEdge(i, bands, height), bandEdge(i+1, bands, height)
		s.FillRect(xStart, height-hi, xEnd-xStart, hi-lo, raster.Gray(intensity(darkness[i], localMax)))
		cells++
	}
	return cells
}

// bandEdge is the distance of edge k from the bottom. Edges are rounded
// independently so consecutive bands tile the height without gaps.
func bandEdge(k, bands, height int) int {
	return int(math.Round(float64(k) * float64(height) / float64(bands)))
}

// intensity maps a count to a gray level, 0 being the block maximum.
func intensity(v, localMax float64) uint8 {
	g := 255 - math.Round(v/localMax*255)
	return uint8(clamp(g, 0, 255))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
