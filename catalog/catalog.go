// ABOUTME: Immutable description of every panel on the dashboard: time series, heatmaps, and simplification points.
// ABOUTME: Provides partition lookups, data extents, and registration order used by layout and zoom sync.
package catalog

import (
	"fmt"
	"math"
	"sort"
)

// Row is one sample of a time series. Missing y values are NaN.
type Row struct {
	X float64
	Y []float64
}

// Series describes one chart panel.
type Series struct {
	ID        string
	Partition int
	Title     string
	Labels    []string // Labels[0] is the x-axis label
	Rows      []Row
	Stacked   bool
	BlockID   string
	LabelID   string
}

// Extent returns the x range covered by the series rows. Empty series
// report ok=false.
func (s Series) Extent() (from, to float64, ok bool) {
	if len(s.Rows) == 0 {
		return 0, 0, false
	}
	return s.Rows[0].X, s.Rows[len(s.Rows)-1].X, true
}

// Columns returns the number of y columns, derived from the labels when
// present and from the widest row otherwise.
func (s Series) Columns() int {
	if len(s.Labels) > 1 {
		return len(s.Labels) - 1
	}
	n := 0
	for _, r := range s.Rows {
		if len(r.Y) > n {
			n = len(r.Y)
		}
	}
	return n
}

// HeatmapBlock holds the bucket counts of one conflict interval.
type HeatmapBlock struct {
	ConflStart float64
	ConflEnd   float64
	Darkness   []float64
}

// Heatmap describes one density panel.
type Heatmap struct {
	ID        string
	Partition int
	Title     string
	LookAt    string // bucketed quantity, e.g. "size" or "glue"
	BlockID   string
	Blocks    []HeatmapBlock
}

// Extent returns the x range tiled by the heatmap blocks.
func (h Heatmap) Extent() (from, to float64, ok bool) {
	if len(h.Blocks) == 0 {
		return 0, 0, false
	}
	return h.Blocks[0].ConflStart, h.Blocks[len(h.Blocks)-1].ConflEnd, true
}

// SimplificationIndex maps a partition to its strictly increasing
// simplification points.
type SimplificationIndex map[int][]float64

// Points returns the simplification points of a partition (nil if none).
func (idx SimplificationIndex) Points(partition int) []float64 {
	return idx[partition]
}

// Catalog is the full, immutable set of panels handed over at load time.
type Catalog struct {
	ID              string
	Series          []Series
	Heatmaps        []Heatmap
	Simplifications SimplificationIndex
	MaxConflicts    map[int]float64
}

// Partitions returns every partition id referenced by the catalog, ascending.
func (c *Catalog) Partitions() []int {
	seen := make(map[int]bool)
	for _, s := range c.Series {
		seen[s.Partition] = true
	}
	for _, h := range c.Heatmaps {
		seen[h.Partition] = true
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SeriesByID returns the series with the given panel id.
func (c *Catalog) SeriesByID(id string) (Series, bool) {
	for _, s := range c.Series {
		if s.ID == id {
			return s, true
		}
	}
	return Series{}, false
}

// HeatmapByID returns the heatmap with the given panel id.
func (c *Catalog) HeatmapByID(id string) (Heatmap, bool) {
	for _, h := range c.Heatmaps {
		if h.ID == id {
			return h, true
		}
	}
	return Heatmap{}, false
}

// Registration returns the block ids of a partition in the order the panels
// were created: chart panels first, then heatmaps.
func (c *Catalog) Registration(partition int) []string {
	var ids []string
	for _, s := range c.Series {
		if s.Partition == partition {
			ids = append(ids, s.BlockID)
		}
	}
	for _, h := range c.Heatmaps {
		if h.Partition == partition {
			ids = append(ids, h.BlockID)
		}
	}
	return ids
}

// Extent returns the union of the x extents of every panel in a partition.
// Non-finite endpoints are skipped. A partition with no finite data reports
// ok=false.
func (c *Catalog) Extent(partition int) (from, to float64, ok bool) {
	from, to = math.Inf(1), math.Inf(-1)
	widen := func(f, t float64) {
		if finite(f) {
			from = math.Min(from, f)
			ok = true
		}
		if finite(t) {
			to = math.Max(to, t)
			ok = true
		}
	}
	for _, s := range c.Series {
		if s.Partition != partition {
			continue
		}
		if f, t, has := s.Extent(); has {
			widen(f, t)
		}
	}
	for _, h := range c.Heatmaps {
		if h.Partition != partition {
			continue
		}
		if f, t, has := h.Extent(); has {
			widen(f, t)
		}
	}
	if !ok {
		return 0, 0, false
	}
	return from, to, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ChartBlockID is the block id the backend assigns to chart panel n of a column.
func ChartBlockID(n, column int) string {
	return fmt.Sprintf("graphBlock%dAT%d", n, column)
}

// HeatmapBlockID is the block id the backend assigns to heatmap row of a column.
func HeatmapBlockID(column, row int) string {
	return fmt.Sprintf("distBlock%d-%d", column, row)
}
