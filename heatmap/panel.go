// ABOUTME: Panel binds one catalog heatmap to a renderer and a surface that may arrive later.
// ABOUTME: Renders requested before a surface is attached are kept as pending and flushed on Attach.
package heatmap

import (
	"log/slog"
	"time"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/metrics"
	"github.com/2389-research/syncview/raster"
	"github.com/2389-research/syncview/zoom"
)

// Panel is a zoom.HeatmapTarget.
type Panel struct {
	heatmap  *catalog.Heatmap
	points   []float64
	renderer *Renderer
	surface  raster.Surface

	pending    zoom.ViewRange
	hasPending bool
	last       Stats
	lastRange  zoom.ViewRange

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPanel creates a panel without a surface. points are the
// simplification points of the heatmap's partition.
func NewPanel(h *catalog.Heatmap, points []float64, r *Renderer, logger *slog.Logger, m *metrics.Metrics) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{
		heatmap:  h,
		points:   points,
		renderer: r,
		logger:   logger.With("heatmap", h.ID),
		metrics:  m,
	}
}

func (p *Panel) ID() string                { return p.heatmap.ID }
func (p *Panel) Heatmap() *catalog.Heatmap { return p.heatmap }
func (p *Panel) Points() []float64         { return p.points }
func (p *Panel) Renderer() *Renderer       { return p.renderer }
func (p *Panel) Surface() raster.Surface   { return p.surface }

// Render draws vr onto the attached surface. Without one, vr is remembered
// and nil is returned; the draw happens on Attach.
func (p *Panel) Render(vr zoom.ViewRange) error {
	if p.surface == nil {
		p.pending, p.hasPending = vr, true
		p.metrics.HeatmapRender("deferred", 0)
		p.logger.Debug("heatmap render deferred until a surface is attached", "range", vr.String())
		return nil
	}
	return p.draw(vr)
}

func (p *Panel) draw(vr zoom.ViewRange) error {
	start := time.Now()
	st, err := p.renderer.Render(p.surface, p.heatmap.Blocks, p.points, vr)
	if err != nil {
		p.metrics.HeatmapRender("failed", 0)
		return err
	}
	p.metrics.HeatmapRender("drawn", time.Since(start))
	p.last, p.lastRange = st, vr
	p.hasPending = false
	return nil
}

// Attach sets the surface and flushes a pending render.
func (p *Panel) Attach(s raster.Surface) error {
	p.surface = s
	if s == nil || !p.hasPending {
		return nil
	}
	return p.draw(p.pending)
}

// Detach removes the surface; later renders are deferred again.
func (p *Panel) Detach() {
	p.surface = nil
}

// Pending returns the range waiting for a surface, if any.
func (p *Panel) Pending() (zoom.ViewRange, bool) {
	return p.pending, p.hasPending
}

// Last returns the stats and range of the most recent draw.
func (p *Panel) Last() (Stats, zoom.ViewRange) {
	return p.last, p.lastRange
}
