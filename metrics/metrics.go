// ABOUTME: Prometheus instrumentation for the zoom sync engine, heatmap rendering, and roll period broadcasts.
// ABOUTME: Uses a private registry so several dashboards (and tests) never collide; all methods are nil-safe.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector of one dashboard.
type Metrics struct {
	Registry *prometheus.Registry

	RangeEvents     *prometheus.CounterVec
	Fanouts         *prometheus.CounterVec
	PanelFailures   *prometheus.CounterVec
	HeatmapRenders  *prometheus.CounterVec
	HeatmapDuration prometheus.Histogram
	RollBroadcasts  prometheus.Counter
	CacheLookups    *prometheus.CounterVec
	CatalogReloads  prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
}

// New registers a fresh set of collectors on a new registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RangeEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncview_range_events_total",
			Help: "Range-change events received, by outcome",
		}, []string{"outcome"}),
		Fanouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncview_fanouts_total",
			Help: "Range propagations across a partition, by kind",
		}, []string{"kind"}),
		PanelFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncview_panel_failures_total",
			Help: "Panel updates that failed during a broadcast",
		}, []string{"kind"}),
		HeatmapRenders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncview_heatmap_renders_total",
			Help: "Heatmap render requests, by result",
		}, []string{"result"}),
		HeatmapDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "syncview_heatmap_render_duration_seconds",
			Help:    "Time to draw one heatmap onto its surface",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		RollBroadcasts: f.NewCounter(prometheus.CounterOpts{
			Name: "syncview_roll_period_broadcasts_total",
			Help: "Roll period broadcasts to all chart panels",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncview_heatmap_cache_lookups_total",
			Help: "PNG cache lookups, by result",
		}, []string{"result"}),
		CatalogReloads: f.NewCounter(prometheus.CounterOpts{
			Name: "syncview_catalog_reloads_total",
			Help: "Catalog reloads that rebuilt every panel",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncview_http_requests_total",
			Help: "HTTP API requests, by method, route and status code",
		}, []string{"method", "route", "code"}),
	}
}

// RangeEvent counts one range-change event.
func (m *Metrics) RangeEvent(outcome string) {
	if m == nil {
		return
	}
	m.RangeEvents.WithLabelValues(outcome).Inc()
}

// Fanout counts one propagation ("zoom" or "reset").
func (m *Metrics) Fanout(kind string) {
	if m == nil {
		return
	}
	m.Fanouts.WithLabelValues(kind).Inc()
}

// PanelFailure counts one failed panel update ("widget", "heatmap", "roll").
func (m *Metrics) PanelFailure(kind string) {
	if m == nil {
		return
	}
	m.PanelFailures.WithLabelValues(kind).Inc()
}

// HeatmapRender records one render attempt ("drawn" or "deferred").
func (m *Metrics) HeatmapRender(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.HeatmapRenders.WithLabelValues(result).Inc()
	if result == "drawn" {
		m.HeatmapDuration.Observe(d.Seconds())
	}
}

// RollBroadcast counts one roll period broadcast.
func (m *Metrics) RollBroadcast() {
	if m == nil {
		return
	}
	m.RollBroadcasts.Inc()
}

// CacheLookup counts one cache lookup ("hit" or "miss").
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// CatalogReload counts one reload.
func (m *Metrics) CatalogReload() {
	if m == nil {
		return
	}
	m.CatalogReloads.Inc()
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
