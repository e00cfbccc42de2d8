// ABOUTME: Tests for panel building from the layout and the column layout collaborator.
package tui

import (
	"strings"
	"testing"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/layout"
)

func TestColumnLayoutRejectsOtherPortals(t *testing.T) {
	c := &ColumnLayout{}
	if err := c.Init(nil, layout.Options{Portal: "grid"}); err == nil {
		t.Fatal("expected an error for an unknown portal")
	}
	cols := []layout.Column{{ID: "column-0", Blocks: []string{"a"}}}
	if err := c.Init(cols, layout.DefaultOptions()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(c.Columns) != 1 || !c.Options.EditorEnabled {
		t.Errorf("unexpected state %+v", c)
	}
}

func TestBuildPanels(t *testing.T) {
	cat := &catalog.Catalog{
		Series: []catalog.Series{
			{ID: "s0", Partition: 0, BlockID: "graphBlock0AT0", Title: "Conflicts"},
		},
		Heatmaps: []catalog.Heatmap{
			{ID: "h0", Partition: 0, BlockID: "distBlock0-0", LookAt: "size"},
		},
	}
	cols := []layout.Column{{ID: "column-0", Blocks: []string{"graphBlock0AT0", "distBlock0-0"}}}

	panels, err := buildPanels(cat, cols)
	if err != nil {
		t.Fatal(err)
	}
	if len(panels) != 1 || len(panels[0]) != 2 {
		t.Fatalf("unexpected shape %v", panels)
	}
	if p := panels[0][0]; p.Kind != ChartPanel || p.Title != "Conflicts" || p.Surface == nil {
		t.Errorf("chart panel = %+v", p)
	}
	if p := panels[0][1]; p.Kind != HeatmapPanel || p.Title != "Clause size distribution" {
		t.Errorf("heatmap panel = %+v", p)
	}

	cols[0].Blocks = append(cols[0].Blocks, "missing")
	if _, err := buildPanels(cat, cols); err == nil {
		t.Error("expected an error for a block without a panel")
	}
}

func TestPanelSetSizeResizesSurface(t *testing.T) {
	p := PanelModel{ID: "s0", Surface: NewCellSurface(1, 1)}
	p.SetSize(30, 10)

	if p.Surface.Width() != 28 || p.Surface.Height() != 14 {
		t.Errorf("surface = %dx%d, want 28x14", p.Surface.Width(), p.Surface.Height())
	}
	if !strings.Contains(p.View(true), "s0") {
		t.Error("untitled panel should show its id")
	}
}
