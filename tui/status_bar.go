// ABOUTME: Implements a single-line status bar for the bottom of the TUI showing dashboard state.
// ABOUTME: Displays catalog, roll period, focused panel, its partition range, and the last action error.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/syncview/zoom"
)

// StatusBarModel displays dashboard status in a single line.
type StatusBarModel struct {
	catalogID  string
	rollPeriod int
	panel      string
	partition  int
	current    *zoom.ViewRange
	err        error
	width      int
}

// NewStatusBarModel creates a status bar for a catalog.
func NewStatusBarModel(catalogID string, rollPeriod int) StatusBarModel {
	return StatusBarModel{catalogID: catalogID, rollPeriod: rollPeriod}
}

func (m *StatusBarModel) SetCatalog(id string)       { m.catalogID = id }
func (m *StatusBarModel) SetRollPeriod(n int)        { m.rollPeriod = n }
func (m *StatusBarModel) SetError(err error)         { m.err = err }
func (m *StatusBarModel) SetWidth(w int)             { m.width = w }
func (m *StatusBarModel) SetRange(r *zoom.ViewRange) { m.current = r }

// SetFocus records the focused panel and its partition.
func (m *StatusBarModel) SetFocus(panel string, partition int) {
	m.panel = panel
	m.partition = partition
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	short := m.catalogID
	if len(short) > 8 {
		short = short[:8]
	}
	rng := "-"
	if m.current != nil {
		rng = m.current.String()
	}
	panel := m.panel
	if panel == "" {
		panel = "none"
	}
	content := fmt.Sprintf("Catalog: %s | Roll: %d | Panel: %s | Column %d: %s",
		short, m.rollPeriod, panel, m.partition, rng)
	if m.err != nil {
		content += " | " + StatusErrorStyle.Render(m.err.Error())
	}
	style := StatusBarStyle.Width(m.width)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
