// ABOUTME: Dashboard assembles a catalog into chart widgets, heatmap panels, zoom and roll controllers, and a layout.
// ABOUTME: One mutex serializes every entry point so front-ends on several goroutines see a single-threaded engine.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/chart"
	"github.com/2389-research/syncview/config"
	"github.com/2389-research/syncview/heatmap"
	"github.com/2389-research/syncview/layout"
	"github.com/2389-research/syncview/metrics"
	"github.com/2389-research/syncview/raster"
	"github.com/2389-research/syncview/zoom"
)

// ErrUnknownHeatmap is returned for heatmap ids the catalog does not hold.
var ErrUnknownHeatmap = errors.New("unknown heatmap")

// Options configures a Dashboard.
type Options struct {
	RollPeriod    int
	Heatmap       heatmap.Options
	HeatmapWidth  int
	HeatmapHeight int
	CacheSize     int
	CacheTTL      time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// FromConfig maps the runtime configuration onto dashboard options.
func FromConfig(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (Options, error) {
	marker, err := cfg.MarkerColor()
	if err != nil {
		return Options{}, err
	}
	return Options{
		RollPeriod: cfg.RollPeriod,
		Heatmap: heatmap.Options{
			NoiseThreshold: cfg.Heatmap.NoiseThreshold,
			MarkerColor:    marker,
			MarkerWidth:    cfg.Heatmap.MarkerWidth,
		},
		HeatmapWidth:  cfg.Heatmap.Width,
		HeatmapHeight: cfg.Heatmap.Height,
		CacheSize:     cfg.Cache.Size,
		CacheTTL:      cfg.Cache.TTL,
		Logger:        logger,
		Metrics:       m,
	}, nil
}

// RangeState describes the zoom state of one partition.
type RangeState struct {
	Partition int             `json:"partition"`
	Current   *zoom.ViewRange `json:"current"`
	Original  *zoom.ViewRange `json:"original"`
	State     string          `json:"state"`
}

// Dashboard is the assembled engine.
type Dashboard struct {
	mu sync.Mutex

	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	zoom     *zoom.Controller
	roll     *zoom.RollPeriodController
	renderer *heatmap.Renderer
	cache    *heatmap.Cache

	catalog     *catalog.Catalog
	widgets     []*chart.Widget
	widgetByID  map[string]*chart.Widget
	heatmaps    []*heatmap.Panel
	heatmapByID map[string]*heatmap.Panel
	coordinator *layout.Coordinator
	layout      layout.Settings

	revision uint64
}

// New builds the dashboard for cat and performs the initial draw of every
// panel.
func New(cat *catalog.Catalog, opts Options) (*Dashboard, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HeatmapWidth < 1 {
		opts.HeatmapWidth = 415
	}
	if opts.HeatmapHeight < 1 {
		opts.HeatmapHeight = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	d := &Dashboard{
		opts:     opts,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		zoom:     zoom.NewController(zoom.WithLogger(opts.Logger), zoom.WithMetrics(opts.Metrics)),
		roll:     zoom.NewRollPeriodController(opts.RollPeriod, opts.Logger, opts.Metrics),
		renderer: heatmap.NewRenderer(opts.Heatmap),
	}
	d.cache = heatmap.NewCache(d.renderPNG, opts.CacheSize, opts.CacheTTL, opts.Metrics)

	if err := d.build(cat); err != nil {
		return nil, err
	}
	return d, nil
}

// build forgets every panel and range and recreates them from cat.
func (d *Dashboard) build(cat *catalog.Catalog) error {
	if cat == nil {
		return errors.New("dashboard: nil catalog")
	}

	coordinator := layout.NewCoordinator(d.logger)
	var parts []layout.Partition
	for _, p := range cat.Partitions() {
		parts = append(parts, layout.Partition{ID: p, Blocks: cat.Registration(p)})
	}
	settings, err := coordinator.Build(parts)
	if err != nil {
		return fmt.Errorf("dashboard layout: %w", err)
	}

	d.zoom.Forget()
	d.roll.Forget()
	d.cache.Purge()

	d.catalog = cat
	d.coordinator = coordinator
	d.layout = settings
	d.widgets = nil
	d.widgetByID = make(map[string]*chart.Widget)
	d.heatmaps = nil
	d.heatmapByID = make(map[string]*heatmap.Panel)

	for _, s := range cat.Series {
		w := chart.New(s, chart.Options{
			DateWindow:   homeWindow(cat, s.Partition),
			RollPeriod:   d.roll.Period(),
			DrawCallback: d.onDraw,
		})
		d.zoom.AddWidget(s.Partition, w)
		d.roll.Add(w)
		d.widgets = append(d.widgets, w)
		d.widgetByID[w.ID()] = w
	}

	for i := range cat.Heatmaps {
		h := &cat.Heatmaps[i]
		p := heatmap.NewPanel(h, cat.Simplifications.Points(h.Partition), d.renderer, d.logger, d.metrics)
		d.zoom.AddHeatmap(h.Partition, p)
		d.heatmaps = append(d.heatmaps, p)
		d.heatmapByID[p.ID()] = p
	}

	for _, w := range d.widgets {
		w.Draw()
	}
	for _, p := range d.heatmaps {
		r, err := d.rangeFor(p.Heatmap().Partition)
		if err != nil {
			d.logger.Debug("heatmap has no extent to draw", "heatmap", p.ID())
			continue
		}
		if err := p.Render(r); err != nil {
			d.logger.Error("initial heatmap render failed", "heatmap", p.ID(), "error", err)
		}
	}

	d.logger.Info("dashboard built",
		"catalog", cat.ID,
		"partitions", len(parts),
		"charts", len(d.widgets),
		"heatmaps", len(d.heatmaps))
	return nil
}

// homeWindow is the partition's full extent widened to include zero, shared
// by every chart of the partition so a full zoom-out on any of them matches
// the captured original exactly. nil means the charts keep their own extents.
func homeWindow(cat *catalog.Catalog, partition int) *zoom.ViewRange {
	from, to, ok := cat.Extent(partition)
	if !ok {
		return nil
	}
	from = math.Min(from, 0)
	if to <= from {
		to = from + 1
	}
	r := zoom.ViewRange{From: from, To: to}
	if r.Validate() != nil {
		return nil
	}
	return &r
}

// onDraw is every widget's draw callback. It runs inside whichever entry
// point triggered the redraw, so it must not take the mutex.
func (d *Dashboard) onDraw(w *chart.Widget, initial bool) {
	r := w.XAxisRange()
	evt, err := zoom.NewRangeChangeEvent(w.Partition(), w.ID(), r.From, r.To, initial)
	if err != nil {
		d.logger.Warn("widget reported a malformed range", "panel", w.ID(), "error", err)
		return
	}
	d.revision++
	d.zoom.OnRangeChanged(evt)
}

// rangeFor is the current range of a partition, falling back to the
// catalog extent for partitions without charts.
func (d *Dashboard) rangeFor(partition int) (zoom.ViewRange, error) {
	if r, ok := d.zoom.Current(partition); ok {
		return r, nil
	}
	if home := homeWindow(d.catalog, partition); home != nil {
		return *home, nil
	}
	return zoom.ViewRange{}, fmt.Errorf("%w: %d", zoom.ErrNoExtent, partition)
}

func (d *Dashboard) widget(id string) (*chart.Widget, error) {
	w, ok := d.widgetByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", zoom.ErrUnknownPanel, id)
	}
	return w, nil
}

func (d *Dashboard) panel(id string) (*heatmap.Panel, error) {
	p, ok := d.heatmapByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeatmap, id)
	}
	return p, nil
}

// Catalog returns the catalog currently shown.
func (d *Dashboard) Catalog() *catalog.Catalog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.catalog
}

// Layout returns the column structure of the current catalog.
func (d *Dashboard) Layout() layout.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layout
}

// ApplyLayout hands the layout to a collaborator, once per build.
func (d *Dashboard) ApplyLayout(collab layout.Collaborator) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.coordinator.Apply(collab, d.layout)
}

// Widgets returns the chart widgets in registration order.
func (d *Dashboard) Widgets() []*chart.Widget {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*chart.Widget(nil), d.widgets...)
}

// Heatmaps returns the heatmap panels in registration order.
func (d *Dashboard) Heatmaps() []*heatmap.Panel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*heatmap.Panel(nil), d.heatmaps...)
}

// Window returns the displayed range of one chart.
func (d *Dashboard) Window(panel string) (zoom.ViewRange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.widget(panel)
	if err != nil {
		return zoom.ViewRange{}, err
	}
	return w.XAxisRange(), nil
}

// SetRange sets the window of one chart as a user zoom would.
func (d *Dashboard) SetRange(panel string, r zoom.ViewRange) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.widget(panel)
	if err != nil {
		return err
	}
	return w.SetDateWindow(r)
}

// Zoom scales the window of one chart about its center.
func (d *Dashboard) Zoom(panel string, factor float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.widget(panel)
	if err != nil {
		return err
	}
	return w.Zoom(factor)
}

// Pan shifts the window of one chart by a fraction of its span.
func (d *Dashboard) Pan(panel string, fraction float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.widget(panel)
	if err != nil {
		return err
	}
	return w.Pan(fraction)
}

// ResetZoom zooms one chart fully out, which resets its whole partition.
func (d *Dashboard) ResetZoom(panel string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.widget(panel)
	if err != nil {
		return err
	}
	return w.ResetZoom()
}

// ResetPartition restores the original extent on every panel of partition.
func (d *Dashboard) ResetPartition(partition int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.zoom.Reset(partition); err != nil {
		return err
	}
	d.revision++
	return nil
}

// SetRollPeriod broadcasts a new roll period to every chart.
func (d *Dashboard) SetRollPeriod(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.roll.SetRollPeriod(n); err != nil {
		return err
	}
	d.revision++
	return nil
}

// RollPeriod returns the current roll period.
func (d *Dashboard) RollPeriod() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.roll.Period()
}

// Revision increases whenever a window, the roll period, or the catalog
// changes, whichever entry point caused it.
func (d *Dashboard) Revision() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

// Range reports the zoom state of a partition.
func (d *Dashboard) Range(partition int) (RangeState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	known := false
	for _, p := range d.catalog.Partitions() {
		if p == partition {
			known = true
			break
		}
	}
	if !known {
		return RangeState{}, fmt.Errorf("%w: %d", zoom.ErrUnknownPartition, partition)
	}
	st := RangeState{Partition: partition, State: d.zoom.State(partition).String()}
	if r, ok := d.zoom.Current(partition); ok {
		st.Current = &r
	}
	if r, ok := d.zoom.Original(partition); ok {
		st.Original = &r
	}
	return st, nil
}

// AttachSurface gives a heatmap panel its drawing surface. A render that
// was deferred for lack of one happens now.
func (d *Dashboard) AttachSurface(heatmapID string, s raster.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.panel(heatmapID)
	if err != nil {
		return err
	}
	return p.Attach(s)
}

// RedrawHeatmap renders a heatmap at its partition's current range, as
// needed after its surface was resized. A partition without any extent has
// nothing to draw.
func (d *Dashboard) RedrawHeatmap(heatmapID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.panel(heatmapID)
	if err != nil {
		return err
	}
	r, err := d.rangeFor(p.Heatmap().Partition)
	if errors.Is(err, zoom.ErrNoExtent) {
		return nil
	}
	if err != nil {
		return err
	}
	return p.Render(r)
}

// HeatmapStats returns the stats and range of a panel's last draw.
func (d *Dashboard) HeatmapStats(heatmapID string) (heatmap.Stats, zoom.ViewRange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.panel(heatmapID)
	if err != nil {
		return heatmap.Stats{}, zoom.ViewRange{}, err
	}
	st, r := p.Last()
	return st, r, nil
}

// PlotChart draws one chart with its partition's simplification markers.
func (d *Dashboard) PlotChart(panel string, s raster.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.widget(panel)
	if err != nil {
		return err
	}
	w.Plot(s, d.catalog.Simplifications.Points(w.Partition()))
	return nil
}

// HeatmapPNG renders a heatmap at r, or at its partition's current range
// when r is nil, and returns the PNG bytes.
func (d *Dashboard) HeatmapPNG(ctx context.Context, heatmapID string, r *zoom.ViewRange) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.panel(heatmapID)
	if err != nil {
		return nil, err
	}
	var vr zoom.ViewRange
	if r != nil {
		vr = *r
	} else if vr, err = d.rangeFor(p.Heatmap().Partition); err != nil {
		return nil, err
	}
	if err := vr.Validate(); err != nil {
		return nil, err
	}
	return d.cache.Render(ctx, heatmap.Request{
		Catalog: d.catalog.ID,
		Heatmap: heatmapID,
		Range:   vr,
		Width:   d.opts.HeatmapWidth,
		Height:  d.opts.HeatmapHeight,
	})
}

// renderPNG is the cache's render function. It runs under the mutex held
// by HeatmapPNG.
func (d *Dashboard) renderPNG(ctx context.Context, req heatmap.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.panel(req.Heatmap)
	if err != nil {
		return nil, err
	}
	img := raster.NewImage(req.Width, req.Height)
	if _, err := d.renderer.Render(img, p.Heatmap().Blocks, p.Points(), req.Range); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := img.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode heatmap %s: %w", req.Heatmap, err)
	}
	return buf.Bytes(), nil
}

// Reload replaces the catalog, dropping every panel, range and cached
// image. The roll period carries over. On error the old catalog stays.
func (d *Dashboard) Reload(cat *catalog.Catalog) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.build(cat); err != nil {
		return err
	}
	d.revision++
	d.metrics.CatalogReload()
	return nil
}
