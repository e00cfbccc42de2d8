// ABOUTME: Chart and heatmap panels of the terminal dashboard and the column layout that orders them.
// ABOUTME: ColumnLayout is the draggable-layout collaborator: it receives the column structure once.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/layout"
)

// PanelKind tells charts from heatmaps.
type PanelKind int

const (
	ChartPanel PanelKind = iota
	HeatmapPanel
)

// PanelModel is one bordered panel hosting a raster.
type PanelModel struct {
	Kind      PanelKind
	ID        string
	BlockID   string
	Title     string
	Partition int
	Surface   *CellSurface
	width     int
	height    int
}

// SetSize sets the outer size; the surface takes what the border and
// title leave.
func (p *PanelModel) SetSize(w, h int) {
	p.width, p.height = w, h
	p.Surface.Resize(max(w-2, 1), max(h-3, 1))
}

// View renders the panel, highlighted when focused.
func (p PanelModel) View(focused bool) string {
	style := BorderStyle
	if focused {
		style = FocusedBorderStyle
	}
	title := p.Title
	if title == "" {
		title = p.ID
	}
	return style.
		Width(max(p.width-2, 1)).
		Height(max(p.height-2, 1)).
		Render(TitleStyle.Render(title) + "\n" + p.Surface.Render())
}

// ColumnLayout receives the layout structure from the coordinator.
type ColumnLayout struct {
	Columns []layout.Column
	Options layout.Options
}

// Init implements layout.Collaborator.
func (c *ColumnLayout) Init(columns []layout.Column, opts layout.Options) error {
	if opts.Portal != "columns" {
		return fmt.Errorf("unsupported portal %q", opts.Portal)
	}
	c.Columns, c.Options = columns, opts
	return nil
}

// buildPanels resolves every block of the layout to a panel, column by
// column.
func buildPanels(cat *catalog.Catalog, cols []layout.Column) ([][]PanelModel, error) {
	byBlock := make(map[string]PanelModel)
	for _, s := range cat.Series {
		byBlock[s.BlockID] = PanelModel{Kind: ChartPanel, ID: s.ID, BlockID: s.BlockID, Title: s.Title, Partition: s.Partition}
	}
	for _, h := range cat.Heatmaps {
		title := h.Title
		if title == "" && h.LookAt != "" {
			title = "Clause " + h.LookAt + " distribution"
		}
		byBlock[h.BlockID] = PanelModel{Kind: HeatmapPanel, ID: h.ID, BlockID: h.BlockID, Title: title, Partition: h.Partition}
	}

	out := make([][]PanelModel, 0, len(cols))
	for _, col := range cols {
		var panels []PanelModel
		for _, b := range col.Blocks {
			p, ok := byBlock[b]
			if !ok {
				return nil, fmt.Errorf("layout block %q has no panel", b)
			}
			p.Surface = NewCellSurface(1, 1)
			panels = append(panels, p)
		}
		out = append(out, panels)
	}
	return out, nil
}

// joinColumns lays the rendered columns side by side.
func joinColumns(cols []string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}
